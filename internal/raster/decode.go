// Package raster decodes single indexed frames on demand and converts
// their palette indices into RGBA pixels.
package raster

import (
	"errors"
	"fmt"

	"github.com/deepteams/gifanim/internal/container"
	"github.com/deepteams/gifanim/internal/gifcodec"
)

// ErrStaleOffset is returned when a frame can no longer be read at its
// indexed position.
var ErrStaleOffset = errors.New("gif: frame offset no longer valid")

// Seeker positions the source a Decoder reads from.
type Seeker interface {
	Seek(off int64) error
}

// interlacePasses are the row start and step of each interlace pass.
var interlacePasses = [4]struct{ start, step int }{
	{0, 8}, {4, 8}, {2, 4}, {1, 2},
}

// Buffer holds palette indices for one frame. It grows as needed and
// never shrinks.
type Buffer struct {
	pix []byte
}

// Grow returns a slice of n bytes backed by the buffer.
func (b *Buffer) Grow(n int) []byte {
	if cap(b.pix) < n {
		b.pix = make([]byte, n)
	}
	return b.pix[:n]
}

// Cap returns the allocated size of the buffer.
func (b *Buffer) Cap() int { return cap(b.pix) }

// Decode seeks to info.Offset, re-reads the frame header and decodes the
// frame's palette indices into buf. The returned slice holds
// info.Width*info.Height indices in final row order and stays valid until
// the next call using buf.
//
// The decoder's image count is left as it was before the call.
func Decode(dec *gifcodec.Decoder, src Seeker, info *container.FrameInfo, buf *Buffer) ([]byte, error) {
	if err := src.Seek(info.Offset); err != nil {
		return nil, fmt.Errorf("%w: frame %d at %d: %v", ErrStaleOffset, info.Index, info.Offset, err)
	}
	count := dec.ImageCount
	defer func() { dec.ImageCount = count }()

	if err := dec.ImageDesc(); err != nil {
		return nil, fmt.Errorf("frame %d: %w", info.Index, err)
	}
	img := &dec.Image
	if img.Left != info.XOffset || img.Top != info.YOffset ||
		img.Width != info.Width || img.Height != info.Height || img.Interlace != info.Interlaced {
		return nil, fmt.Errorf("%w: frame %d header changed", ErrStaleOffset, info.Index)
	}

	w, h := info.Width, info.Height
	pix := buf.Grow(w * h)
	if w == 0 || h == 0 {
		return pix, nil
	}
	if !info.Interlaced {
		if err := dec.GetLine(pix); err != nil {
			return nil, fmt.Errorf("frame %d: %w", info.Index, err)
		}
		return pix, nil
	}
	for _, p := range interlacePasses {
		for y := p.start; y < h; y += p.step {
			if err := dec.GetLine(pix[y*w : (y+1)*w]); err != nil {
				return nil, fmt.Errorf("frame %d row %d: %w", info.Index, y, err)
			}
		}
	}
	return pix, nil
}
