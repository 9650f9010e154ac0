package animation

import (
	"errors"
	"image"
	"time"

	"golang.org/x/image/draw"

	"github.com/deepteams/gifanim"
	"github.com/deepteams/gifanim/internal/pool"
)

// ErrNoMoreFrames is returned by NextFrame once every frame has been played.
var ErrNoMoreFrames = errors.New("animation: no more frames")

// Player rebuilds the canvas of an Image frame by frame. It uses two
// buffers:
//   - curr: the canvas as shown for the current frame
//   - base: the canvas the next frame is drawn over, after disposal
//
// A Player is not safe for concurrent use. It does not own the Image.
type Player struct {
	img  *gifanim.Image
	curr *image.RGBA
	base *image.RGBA
	pos  int
}

// NewPlayer returns a Player positioned before the first frame of img. The
// canvas starts out transparent.
func NewPlayer(img *gifanim.Image) *Player {
	bounds := image.Rect(0, 0, img.Width(), img.Height())
	return &Player{
		img:  img,
		curr: image.NewRGBA(bounds),
		base: image.NewRGBA(bounds),
	}
}

// HasNext reports whether more frames are available.
func (p *Player) HasNext() bool {
	return p.pos < p.img.FrameCount()
}

// NextFrame draws the next frame over the disposed canvas and returns a
// snapshot of the result along with the frame's duration. The snapshot is
// not modified by later calls.
func (p *Player) NextFrame() (*image.RGBA, time.Duration, error) {
	if !p.HasNext() {
		return nil, 0, ErrNoMoreFrames
	}
	f, err := p.img.Frame(p.pos)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	info := f.Info()

	m := pool.GetRGBA(info.Width, info.Height)
	defer pool.PutRGBA(m)
	if err := f.Render(m); err != nil {
		return nil, 0, err
	}

	copy(p.curr.Pix, p.base.Pix)
	// Transparent pixels are zero, so Over leaves the canvas showing
	// through them.
	draw.Draw(p.curr, info.Bounds(), m, image.Point{}, draw.Over)

	snap := image.NewRGBA(p.curr.Bounds())
	copy(snap.Pix, p.curr.Pix)

	switch info.Disposal {
	case gifanim.DisposePrevious:
		// base already holds the canvas from before this frame.
	case gifanim.DisposeBackground:
		copy(p.base.Pix, p.curr.Pix)
		fillRect(p.base, info.Bounds())
	default:
		copy(p.base.Pix, p.curr.Pix)
	}

	p.pos++
	return snap, time.Duration(info.Duration) * time.Millisecond, nil
}

// Reset rewinds the Player to the first frame and clears the canvas.
func (p *Player) Reset() {
	p.pos = 0
	clear(p.curr.Pix)
	clear(p.base.Pix)
}

// Canvas returns the current canvas state (not a copy).
func (p *Player) Canvas() *image.RGBA {
	return p.curr
}

// Position returns the index of the next frame NextFrame will draw.
func (p *Player) Position() int {
	return p.pos
}

// fillRect clears rect on the canvas to transparent black.
func fillRect(canvas *image.RGBA, rect image.Rectangle) {
	rect = rect.Intersect(canvas.Bounds())
	if rect.Empty() {
		return
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		i := canvas.PixOffset(rect.Min.X, y)
		clear(canvas.Pix[i : i+4*rect.Dx()])
	}
}
