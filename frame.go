package gifanim

import (
	"fmt"
	"image"
	"image/color"
	"sync/atomic"

	"golang.org/x/image/draw"

	"github.com/deepteams/gifanim/internal/container"
	"github.com/deepteams/gifanim/internal/raster"
)

// Disposal specifies how a frame's area is treated before the next frame
// is drawn.
type Disposal int

const (
	DisposalUnspecified = Disposal(container.DisposalUnspecified)
	DisposeDoNot        = Disposal(container.DisposeDoNot)
	DisposeBackground   = Disposal(container.DisposeBackground)
	DisposePrevious     = Disposal(container.DisposePrevious)
)

// String returns the disposal name.
func (d Disposal) String() string { return container.Disposal(d).String() }

// FrameInfo holds the indexed properties of a frame.
type FrameInfo struct {
	Index            int
	XOffset, YOffset int
	Width, Height    int
	Interlaced       bool
	Duration         int // milliseconds
	Disposal         Disposal
	HasTransparency  bool
}

func newFrameInfo(info *container.FrameInfo) FrameInfo {
	return FrameInfo{
		Index:           info.Index,
		XOffset:         info.XOffset,
		YOffset:         info.YOffset,
		Width:           info.Width,
		Height:          info.Height,
		Interlaced:      info.Interlaced,
		Duration:        info.Duration,
		Disposal:        Disposal(info.Disposal),
		HasTransparency: info.HasTransparency(),
	}
}

// Bounds returns the frame rectangle on the canvas.
func (f FrameInfo) Bounds() image.Rectangle {
	return image.Rect(f.XOffset, f.YOffset, f.XOffset+f.Width, f.YOffset+f.Height)
}

// Frame is a handle on one frame of an Image. Its properties are fixed at
// creation; rendering decodes the frame again each time. Frames of the same
// Image may be rendered from different goroutines.
type Frame struct {
	s      *session
	info   container.FrameInfo
	closed atomic.Bool
}

// Index returns the frame's position in the Image.
func (f *Frame) Index() int { return f.info.Index }

// Width returns the frame width.
func (f *Frame) Width() int { return f.info.Width }

// Height returns the frame height.
func (f *Frame) Height() int { return f.info.Height }

// XOffset returns the frame's left edge on the canvas.
func (f *Frame) XOffset() int { return f.info.XOffset }

// YOffset returns the frame's top edge on the canvas.
func (f *Frame) YOffset() int { return f.info.YOffset }

// Duration returns the frame duration in milliseconds.
func (f *Frame) Duration() int { return f.info.Duration }

// Disposal returns the frame's disposal method.
func (f *Frame) Disposal() Disposal { return Disposal(f.info.Disposal) }

// HasTransparency reports whether the frame declares a transparent index.
func (f *Frame) HasTransparency() bool { return f.info.HasTransparency() }

// Info returns the frame's indexed properties.
func (f *Frame) Info() FrameInfo { return newFrameInfo(&f.info) }

// TransparentColor returns the color table entry of the frame's
// transparent index, or transparent black when the frame has none.
func (f *Frame) TransparentColor() color.RGBA {
	return raster.TransparentColor(&f.info, raster.ColorMapFor(&f.info, f.s.meta.ColorMap))
}

// RenderInto decodes the frame into b, starting at b's origin. Only the
// region shared by the frame and the bitmap is written. Transparent pixels
// are written as four zero bytes.
func (f *Frame) RenderInto(b Bitmap) error {
	if f.closed.Load() {
		return ErrDisposed
	}
	if err := b.validate(); err != nil {
		return err
	}
	return f.s.render(&f.info, raster.Target{Pix: b.Pix, Width: b.Width, Height: b.Height, Stride: b.Stride})
}

// Render decodes the frame into dst, aligning the frame's top-left corner
// with dst.Bounds().Min. Images that are not *image.RGBA are drawn through
// an intermediate buffer.
func (f *Frame) Render(dst draw.Image) error {
	r := dst.Bounds()
	if rgba, ok := dst.(*image.RGBA); ok {
		if r.Empty() {
			return f.RenderInto(Bitmap{Stride: rgba.Stride})
		}
		return f.RenderInto(Bitmap{
			Pix:    rgba.Pix[rgba.PixOffset(r.Min.X, r.Min.Y):],
			Width:  r.Dx(),
			Height: r.Dy(),
			Stride: rgba.Stride,
		})
	}
	w, h := min(f.info.Width, r.Dx()), min(f.info.Height, r.Dy())
	tmp := image.NewRGBA(image.Rect(0, 0, w, h))
	if err := f.RenderInto(Bitmap{Pix: tmp.Pix, Width: w, Height: h, Stride: tmp.Stride}); err != nil {
		return err
	}
	draw.Draw(dst, image.Rectangle{Min: r.Min, Max: r.Min.Add(tmp.Rect.Size())}, tmp, image.Point{}, draw.Src)
	return nil
}

// Close releases the frame handle. Closing twice returns ErrDisposed.
func (f *Frame) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return ErrDisposed
	}
	return f.s.release()
}

func (f *Frame) String() string {
	return fmt.Sprintf("frame %d %dx%d+%d+%d %dms %v", f.info.Index, f.info.Width, f.info.Height,
		f.info.XOffset, f.info.YOffset, f.info.Duration, f.Disposal())
}
