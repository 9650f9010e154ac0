package gifanim

import (
	"fmt"
	"image/color"
	"sync/atomic"

	"github.com/deepteams/gifanim/internal/container"
)

// LoopCountMissing is returned by Loop when the file has no looping
// extension.
const LoopCountMissing = container.LoopCountMissing

// Image is an indexed GIF. Its methods are safe for concurrent use.
type Image struct {
	s      *session
	closed atomic.Bool
}

func newImage(s *session) *Image {
	return &Image{s: s}
}

// Width returns the logical screen width.
func (m *Image) Width() int { return m.s.meta.Width }

// Height returns the logical screen height.
func (m *Image) Height() int { return m.s.meta.Height }

// FrameCount returns the number of indexed frames.
func (m *Image) FrameCount() int { return m.s.idx.Len() }

// Duration returns the total duration of all frames in milliseconds.
func (m *Image) Duration() int { return m.s.idx.TotalDuration() }

// FrameDurations returns the duration of each frame in milliseconds.
func (m *Image) FrameDurations() []int { return m.s.idx.Durations() }

// Loop returns the repeat count stored in the looping extension: 0 means
// repeat forever, LoopCountMissing means the file has no such extension.
func (m *Image) Loop() int { return m.s.meta.LoopCount }

// LoopCount returns how many times the animation should be played, with 0
// meaning forever. A file without a looping extension plays once; a stored
// repeat count of n plays n+1 times.
func (m *Image) LoopCount() int {
	switch n := m.s.meta.LoopCount; n {
	case LoopCountMissing:
		return 1
	case 0:
		return 0
	default:
		return n + 1
	}
}

// IsAnimated reports whether the file holds more than one image. It is
// true even when the Image was opened with Options.ForceStatic.
func (m *Image) IsAnimated() bool { return m.s.meta.Animated }

// Incomplete reports whether indexing stopped at a decode error after
// recovering at least one frame.
func (m *Image) Incomplete() bool { return m.s.meta.Incomplete }

// SizeInBytes returns the memory retained by the Image: the size of the
// encoded data plus the scratch buffer.
func (m *Image) SizeInBytes() int64 {
	return m.s.size + int64(m.s.scratchSize())
}

// BackgroundColor returns the global color table entry named by the
// logical screen's background index, or transparent black when there is
// no global table.
func (m *Image) BackgroundColor() color.RGBA {
	cmap := m.s.meta.ColorMap
	if cmap == nil {
		return color.RGBA{}
	}
	return cmap.Lookup(m.s.meta.BackgroundIndex)
}

// FrameInfo returns the indexed properties of frame i without taking a
// frame handle.
func (m *Image) FrameInfo(i int) (FrameInfo, error) {
	info, ok := m.s.idx.Frame(i)
	if !ok {
		return FrameInfo{}, fmt.Errorf("%w: %d of %d", ErrFrameRange, i, m.s.idx.Len())
	}
	return newFrameInfo(&info), nil
}

// Frame returns a handle on frame i. The handle must be closed.
func (m *Image) Frame(i int) (*Frame, error) {
	if m.closed.Load() {
		return nil, ErrDisposed
	}
	info, ok := m.s.idx.Frame(i)
	if !ok {
		return nil, fmt.Errorf("%w: %d of %d", ErrFrameRange, i, m.s.idx.Len())
	}
	if !m.s.acquire() {
		return nil, ErrDisposed
	}
	return &Frame{s: m.s, info: info}, nil
}

// Close releases the Image. The underlying source is closed once every
// frame obtained from it has been closed too. Metadata accessors keep
// working after Close; Frame fails with ErrDisposed. Closing twice
// returns ErrDisposed.
func (m *Image) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return ErrDisposed
	}
	return m.s.release()
}
