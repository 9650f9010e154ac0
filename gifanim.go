package gifanim

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/deepteams/gifanim/internal/container"
	"github.com/deepteams/gifanim/internal/source"
)

// DefaultMaxDimension is the largest canvas or frame side accepted when
// Options.MaxDimension is zero.
const DefaultMaxDimension = container.DefaultMaxDimension

// Options configures how a GIF is opened.
type Options struct {
	// MaxDimension bounds the width and height of the canvas and of every
	// frame. Zero selects DefaultMaxDimension.
	MaxDimension int

	// ForceStatic indexes only the first frame. IsAnimated still reports
	// whether the file holds more than one image.
	ForceStatic bool

	// Logger receives debug records about indexing and rendering. Nil
	// discards them.
	Logger *slog.Logger
}

func (o *Options) logger() *slog.Logger {
	if o == nil || o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

func (o *Options) container() container.Options {
	if o == nil {
		return container.Options{}
	}
	return container.Options{MaxDimension: o.MaxDimension, ForceStatic: o.ForceStatic}
}

// Layout is the pixel format of a Bitmap.
type Layout int

const (
	LayoutRGBA8888 Layout = iota // 4 bytes per pixel: R, G, B, A
	LayoutRGB565                 // 2 bytes per pixel
	LayoutAlpha8                 // 1 byte per pixel
)

// String returns the layout name.
func (l Layout) String() string {
	switch l {
	case LayoutRGBA8888:
		return "RGBA8888"
	case LayoutRGB565:
		return "RGB565"
	case LayoutAlpha8:
		return "ALPHA8"
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

// Bitmap is a caller-owned pixel buffer. Rows start Stride bytes apart.
type Bitmap struct {
	Pix           []byte
	Width, Height int
	Stride        int
	Layout        Layout
}

func (b *Bitmap) validate() error {
	if b.Layout != LayoutRGBA8888 {
		return fmt.Errorf("%w: %v", ErrUnsupportedLayout, b.Layout)
	}
	if b.Width < 0 || b.Height < 0 || b.Width > math.MaxInt/4 || b.Stride < 4*b.Width {
		return fmt.Errorf("%w: %dx%d stride %d", ErrBadBitmap, b.Width, b.Height, b.Stride)
	}
	if b.Width == 0 || b.Height == 0 {
		return nil
	}
	// (Height-1)*Stride+4*Width <= len(Pix), checked without overflow.
	row := 4 * b.Width
	if len(b.Pix) < row || (b.Height > 1 && b.Stride > (len(b.Pix)-row)/(b.Height-1)) {
		return fmt.Errorf("%w: %dx%d stride %d needs more than %d bytes", ErrBadBitmap, b.Width, b.Height, b.Stride, len(b.Pix))
	}
	return nil
}

// readAll reads all data from r. If r implements Len() int (e.g.
// *bytes.Reader), a single exact-sized allocation is used.
func readAll(r io.Reader) ([]byte, error) {
	if lr, ok := r.(interface{ Len() int }); ok {
		n := lr.Len()
		if n > 0 {
			data := make([]byte, n)
			_, err := io.ReadFull(r, data)
			return data, err
		}
	}
	return io.ReadAll(r)
}

// Open reads all of r into memory and indexes it.
func Open(r io.Reader, opts *Options) (*Image, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	return OpenBytes(data, opts)
}

// OpenBytes indexes the GIF held in data. The slice is not copied and must
// not be modified while the Image or any of its frames is open.
func OpenBytes(data []byte, opts *Options) (*Image, error) {
	return open(source.FromBytes(data), opts)
}

// OpenFile indexes the GIF read from f. The Image takes ownership of f and
// closes it once the Image and all its frames are closed, or right away if
// opening fails.
func OpenFile(f *os.File, opts *Options) (*Image, error) {
	src, err := source.FromFile(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return open(src, opts)
}

// OpenFD indexes the GIF read from the open file descriptor fd. The
// descriptor is duplicated; the caller keeps ownership of fd.
func OpenFD(fd int, opts *Options) (*Image, error) {
	src, err := source.FromFD(fd)
	if err != nil {
		return nil, err
	}
	return open(src, opts)
}

func open(src source.Source, opts *Options) (*Image, error) {
	s, err := newSession(src, opts)
	if err != nil {
		return nil, err
	}
	return newImage(s), nil
}
