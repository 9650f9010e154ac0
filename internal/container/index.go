package container

import (
	"sync"

	"github.com/deepteams/gifanim/internal/gifcodec"
)

// FrameInfo describes one indexed frame. It is immutable once appended to
// an Index.
type FrameInfo struct {
	Index int

	// Offset is the source position of the frame's image descriptor, just
	// past its image separator.
	Offset int64

	XOffset, YOffset int
	Width, Height    int
	Interlaced       bool

	Disposal         Disposal
	TransparentIndex int // NoTransparentIndex when unset
	Duration         int // milliseconds

	// ColorMap is the local color table, nil when the frame uses the
	// global one.
	ColorMap *gifcodec.ColorMap
}

// HasTransparency reports whether the frame declares a transparent index.
func (f *FrameInfo) HasTransparency() bool {
	return f.TransparentIndex != NoTransparentIndex
}

// Metadata holds file-level properties.
type Metadata struct {
	Version         string
	Width, Height   int
	BackgroundIndex int
	LoopCount       int // LoopCountMissing, 0 for infinite, else repeats
	Animated        bool

	// Incomplete is set when indexing stopped on an error after at least
	// one frame had been recovered.
	Incomplete bool

	ColorMap *gifcodec.ColorMap // global color table, nil when absent
}

// Index is the ordered list of frames of a file together with its
// metadata. Writers append during Scan; readers may query concurrently.
type Index struct {
	mu     sync.RWMutex
	frames []FrameInfo
	meta   Metadata
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{meta: Metadata{LoopCount: LoopCountMissing}}
}

// Append adds f as the next frame. f.Index is set to its position.
func (x *Index) Append(f FrameInfo) {
	x.mu.Lock()
	f.Index = len(x.frames)
	x.frames = append(x.frames, f)
	x.mu.Unlock()
}

// Len returns the number of frames.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.frames)
}

// Frame returns frame i.
func (x *Index) Frame(i int) (FrameInfo, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if i < 0 || i >= len(x.frames) {
		return FrameInfo{}, false
	}
	return x.frames[i], true
}

// Frames returns a copy of the frame list.
func (x *Index) Frames() []FrameInfo {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return append([]FrameInfo(nil), x.frames...)
}

// Durations returns each frame's duration in milliseconds.
func (x *Index) Durations() []int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	d := make([]int, len(x.frames))
	for i := range x.frames {
		d[i] = x.frames[i].Duration
	}
	return d
}

// TotalDuration returns the sum of all frame durations in milliseconds.
func (x *Index) TotalDuration() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	var total int
	for i := range x.frames {
		total += x.frames[i].Duration
	}
	return total
}

// Metadata returns the file-level properties.
func (x *Index) Metadata() Metadata {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.meta
}

func (x *Index) updateMetadata(fn func(*Metadata)) {
	x.mu.Lock()
	fn(&x.meta)
	x.mu.Unlock()
}
