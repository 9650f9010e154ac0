// Package gifcodec implements the low-level GIF decoding primitives: header
// and record parsing, image descriptors, LZW scanline decoding, raster
// skipping and extension blocks.
//
// The Decoder never reads ahead of the bytes it has been asked to consume,
// so the position of the underlying reader always lies on a record boundary
// between calls. This lets callers record offsets during one pass and seek
// back to them for random-access decoding later.
package gifcodec

import (
	"compress/lzw"
	"errors"
	"fmt"
	"io"
)

// Block introducers and the trailer.
const (
	sExtension      = 0x21
	sImageSeparator = 0x2C
	sTrailer        = 0x3B
)

// Extension function codes.
const (
	ContinueExtFuncCode    = 0x00 // continuation sub-block of the preceding extension
	PlainTextExtFuncCode   = 0x01
	GraphicsExtFuncCode    = 0xF9
	CommentExtFuncCode     = 0xFE
	ApplicationExtFuncCode = 0xFF
)

// Image descriptor flags.
const (
	fColorTable     = 1 << 7
	fInterlace      = 1 << 6
	fColorTableMask = 7
)

// Common errors.
var (
	ErrNotGIF       = errors.New("gif: not a GIF file")
	ErrTruncated    = errors.New("gif: truncated data")
	ErrBadRecord    = errors.New("gif: unknown record type")
	ErrBadCodeSize  = errors.New("gif: invalid LZW code size")
	ErrNotEnough    = errors.New("gif: not enough image data")
	ErrNoImage      = errors.New("gif: no image descriptor")
	ErrLineTooLong  = errors.New("gif: line exceeds remaining pixels")
	ErrBadExtension = errors.New("gif: malformed extension")
	ErrBadData      = errors.New("gif: corrupt image data")
)

// RecordType identifies the next record in the data stream.
type RecordType int

const (
	RecordImage RecordType = iota + 1
	RecordExtension
	RecordTerminate
)

// String returns the record name.
func (t RecordType) String() string {
	switch t {
	case RecordImage:
		return "image"
	case RecordExtension:
		return "extension"
	case RecordTerminate:
		return "trailer"
	}
	return fmt.Sprintf("RecordType(%d)", int(t))
}

// Reader is the byte source a Decoder consumes.
type Reader interface {
	io.Reader
	io.ByteReader
}

// ImageDesc describes the image whose descriptor was parsed last.
type ImageDesc struct {
	Left, Top     int
	Width, Height int
	Interlace     bool
	ColorMap      *ColorMap // local color table, nil when absent
	LitWidth      int       // LZW minimum code size
}

// Decoder reads a GIF data stream one record at a time.
type Decoder struct {
	r Reader

	Version         string // "87a" or "89a"
	Width, Height   int    // logical screen size
	ColorResolution int
	BackgroundIndex int
	AspectByte      byte
	ColorMap        *ColorMap // global color table, nil when absent

	// ImageCount counts the image descriptors parsed so far.
	ImageCount int

	// Image is the descriptor of the current image.
	Image ImageDesc

	blocks     blockReader
	lzw        *lzw.Reader
	lzwReady   bool
	pixelsLeft int64
	inImage    bool

	tmp [256]byte
}

// NewDecoder reads the GIF header, logical screen descriptor and global
// color table from r.
func NewDecoder(r Reader) (*Decoder, error) {
	d := &Decoder{r: r}
	if err := d.readHeader(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Decoder) readFull(p []byte) error {
	if _, err := io.ReadFull(d.r, p); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return ErrTruncated
		}
		return err
	}
	return nil
}

func (d *Decoder) readHeader() error {
	b := d.tmp[:13]
	if err := d.readFull(b); err != nil {
		if errors.Is(err, ErrTruncated) {
			return ErrNotGIF
		}
		return err
	}
	if string(b[:3]) != "GIF" {
		return ErrNotGIF
	}
	d.Version = string(b[3:6])
	if d.Version != "87a" && d.Version != "89a" {
		return fmt.Errorf("%w: version %q", ErrNotGIF, d.Version)
	}
	d.Width = int(b[6]) | int(b[7])<<8
	d.Height = int(b[8]) | int(b[9])<<8
	flags := b[10]
	d.ColorResolution = int((flags>>4)&7) + 1
	d.BackgroundIndex = int(b[11])
	d.AspectByte = b[12]
	if flags&fColorTable != 0 {
		cm, err := d.readColorMap(int(flags&fColorTableMask) + 1)
		if err != nil {
			return err
		}
		d.ColorMap = cm
	}
	return nil
}

func (d *Decoder) readColorMap(bits int) (*ColorMap, error) {
	buf := make([]byte, 3<<bits)
	if err := d.readFull(buf); err != nil {
		return nil, err
	}
	return newColorMap(bits, buf), nil
}

// RecordType reads the next record introducer.
func (d *Decoder) RecordType() (RecordType, error) {
	c, err := d.r.ReadByte()
	if err != nil {
		if err == io.EOF {
			return 0, ErrTruncated
		}
		return 0, err
	}
	switch c {
	case sImageSeparator:
		return RecordImage, nil
	case sExtension:
		return RecordExtension, nil
	case sTrailer:
		return RecordTerminate, nil
	}
	return 0, fmt.Errorf("%w: %#02x", ErrBadRecord, c)
}

// ImageDesc parses an image descriptor, its local color table and the LZW
// minimum code size. The reader must be positioned just after the image
// separator. On success ImageCount is incremented and the decoder is ready
// for GetLine or SkipRaster.
func (d *Decoder) ImageDesc() error {
	d.inImage = false
	b := d.tmp[:9]
	if err := d.readFull(b); err != nil {
		return err
	}
	img := ImageDesc{
		Left:      int(b[0]) | int(b[1])<<8,
		Top:       int(b[2]) | int(b[3])<<8,
		Width:     int(b[4]) | int(b[5])<<8,
		Height:    int(b[6]) | int(b[7])<<8,
		Interlace: b[8]&fInterlace != 0,
	}
	if b[8]&fColorTable != 0 {
		cm, err := d.readColorMap(int(b[8]&fColorTableMask) + 1)
		if err != nil {
			return err
		}
		img.ColorMap = cm
	}
	lw, err := d.r.ReadByte()
	if err != nil {
		return ErrTruncated
	}
	if lw < 2 || lw > 8 {
		return fmt.Errorf("%w: %d", ErrBadCodeSize, lw)
	}
	img.LitWidth = int(lw)

	d.Image = img
	d.pixelsLeft = int64(img.Width) * int64(img.Height)
	d.blocks.reset(d.r)
	d.lzwReady = false
	d.inImage = true
	d.ImageCount++
	return nil
}

// GetLine decodes len(line) pixel indices of the current image into line.
// Lines are delivered in stream order; for interlaced images the caller is
// responsible for placing them. Once the last pixel has been read the rest
// of the image data is consumed so the reader lands on the next record.
func (d *Decoder) GetLine(line []byte) error {
	if !d.inImage {
		return ErrNoImage
	}
	if int64(len(line)) > d.pixelsLeft {
		return ErrLineTooLong
	}
	if len(line) == 0 {
		return nil
	}
	if !d.lzwReady {
		if d.lzw == nil {
			d.lzw = lzw.NewReader(&d.blocks, lzw.LSB, d.Image.LitWidth).(*lzw.Reader)
		} else {
			d.lzw.Reset(&d.blocks, lzw.LSB, d.Image.LitWidth)
		}
		d.lzwReady = true
	}
	if _, err := io.ReadFull(d.lzw, line); err != nil {
		d.inImage = false
		return d.lineError(err)
	}
	d.pixelsLeft -= int64(len(line))
	if d.pixelsLeft == 0 {
		d.inImage = false
		return d.blocks.drain()
	}
	return nil
}

func (d *Decoder) lineError(err error) error {
	if d.blocks.err != nil && d.blocks.err != io.EOF {
		return d.blocks.err
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrNotEnough
	}
	return fmt.Errorf("%w: %v", ErrBadData, err)
}

// SkipRaster consumes the image data of the current image without
// decoding it.
func (d *Decoder) SkipRaster() error {
	if !d.inImage {
		return ErrNoImage
	}
	d.inImage = false
	d.pixelsLeft = 0
	return d.blocks.drain()
}

// Remaining returns the number of pixels of the current image not yet
// delivered by GetLine.
func (d *Decoder) Remaining() int64 {
	if !d.inImage {
		return 0
	}
	return d.pixelsLeft
}
