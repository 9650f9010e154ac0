// Package giftest builds GIF files byte by byte for tests. It can produce
// streams the standard library encoder never writes: interlaced frames,
// repeated graphic control extensions, several application blocks and
// missing trailers.
package giftest

import (
	"bytes"
	"compress/lzw"
	"image/color"
	"io"
)

// Frame describes one image record.
type Frame struct {
	X, Y, W, H int
	Pix        []byte // W*H palette indices, row-major

	Palette    []color.RGBA // local color table, nil for none
	Interlaced bool
	LitWidth   int // LZW minimum code size, computed when zero

	NoGCE          bool // omit the graphic control extension
	Delay          int  // hundredths of a second
	Disposal       int
	Transparent    int
	HasTransparent bool

	// Extensions are raw extension records written before the graphic
	// control extension, starting with the 0x21 introducer.
	Extensions [][]byte
}

// GIF describes a complete file.
type GIF struct {
	Version       string // defaults to "89a"
	Width, Height int
	Palette       []color.RGBA // global color table, nil for none
	Background    int

	// Extensions are raw extension records written before the first frame.
	Extensions [][]byte
	Frames     []Frame
	NoTrailer  bool
}

// Bytes encodes g.
func (g *GIF) Bytes() []byte {
	b, _ := g.Encode()
	return b
}

// Encode encodes g and returns the offset of each frame's image
// descriptor, the byte just after its image separator.
func (g *GIF) Encode() ([]byte, []int64) {
	var buf bytes.Buffer
	v := g.Version
	if v == "" {
		v = "89a"
	}
	buf.WriteString("GIF" + v)
	le16(&buf, g.Width)
	le16(&buf, g.Height)
	var flags byte
	if g.Palette != nil {
		flags = 0x80 | 0x70 | byte(tableBits(len(g.Palette))-1)
	}
	buf.WriteByte(flags)
	buf.WriteByte(byte(g.Background))
	buf.WriteByte(0)
	if g.Palette != nil {
		writeTable(&buf, g.Palette)
	}
	for _, e := range g.Extensions {
		buf.Write(e)
	}

	offsets := make([]int64, 0, len(g.Frames))
	for i := range g.Frames {
		f := &g.Frames[i]
		for _, e := range f.Extensions {
			buf.Write(e)
		}
		if !f.NoGCE {
			buf.Write(GCE(f.Disposal, f.Delay, f.Transparent, f.HasTransparent))
		}
		buf.WriteByte(0x2C)
		offsets = append(offsets, int64(buf.Len()))
		writeImage(&buf, f)
	}
	if !g.NoTrailer {
		buf.WriteByte(0x3B)
	}
	return buf.Bytes(), offsets
}

func writeImage(buf *bytes.Buffer, f *Frame) {
	le16(buf, f.X)
	le16(buf, f.Y)
	le16(buf, f.W)
	le16(buf, f.H)
	var flags byte
	if f.Palette != nil {
		flags |= 0x80 | byte(tableBits(len(f.Palette))-1)
	}
	if f.Interlaced {
		flags |= 0x40
	}
	buf.WriteByte(flags)
	if f.Palette != nil {
		writeTable(buf, f.Palette)
	}

	lw := f.LitWidth
	if lw == 0 {
		lw = litWidth(f)
	}
	buf.WriteByte(byte(lw))
	bw := &blockWriter{w: buf}
	zw := lzw.NewWriter(bw, lzw.LSB, lw)
	pix := f.Pix
	if f.Interlaced {
		pix = Interlace(pix, f.W, f.H)
	}
	zw.Write(pix)
	zw.Close()
	bw.Close()
}

// Interlace reorders the rows of a w×h image into GIF interlaced stream
// order.
func Interlace(pix []byte, w, h int) []byte {
	out := make([]byte, 0, len(pix))
	for _, p := range [...]struct{ start, step int }{{0, 8}, {4, 8}, {2, 4}, {1, 2}} {
		for y := p.start; y < h; y += p.step {
			out = append(out, pix[y*w:(y+1)*w]...)
		}
	}
	return out
}

// GCE returns a graphic control extension record.
func GCE(disposal, delay, transparent int, hasTransparent bool) []byte {
	packed := byte(disposal&7) << 2
	if hasTransparent {
		packed |= 1
	}
	return []byte{0x21, 0xF9, 4, packed, byte(delay), byte(delay >> 8), byte(transparent), 0}
}

// AppExtension returns an application extension record with the given
// 11-byte identifier block followed by the data sub-blocks.
func AppExtension(id string, sub ...[]byte) []byte {
	b := []byte{0x21, 0xFF, byte(len(id))}
	b = append(b, id...)
	for _, s := range sub {
		b = append(b, byte(len(s)))
		b = append(b, s...)
	}
	return append(b, 0)
}

// LoopExtension returns a NETSCAPE2.0 looping extension.
func LoopExtension(n int) []byte {
	return AppExtension("NETSCAPE2.0", []byte{1, byte(n), byte(n >> 8)})
}

// Comment returns a comment extension record.
func Comment(s string) []byte {
	b := []byte{0x21, 0xFE}
	for len(s) > 0 {
		n := min(len(s), 255)
		b = append(b, byte(n))
		b = append(b, s[:n]...)
		s = s[n:]
	}
	return append(b, 0)
}

// Solid returns w*h pixels of index c.
func Solid(w, h int, c byte) []byte {
	return bytes.Repeat([]byte{c}, w*h)
}

// Pattern returns w*h pixels cycling through n indices, varying by row and
// column so row order mistakes are visible.
func Pattern(w, h, n int) []byte {
	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix[y*w+x] = byte((x + 3*y) % n)
		}
	}
	return pix
}

// Palette returns n distinct opaque colors.
func Palette(n int) []color.RGBA {
	p := make([]color.RGBA, n)
	for i := range p {
		p[i] = color.RGBA{R: byte(i * 37), G: byte(255 - i*11), B: byte(i * 5), A: 0xff}
	}
	return p
}

func tableBits(n int) int {
	bits := 1
	for 1<<bits < n {
		bits++
	}
	return bits
}

func writeTable(buf *bytes.Buffer, p []color.RGBA) {
	n := 1 << tableBits(len(p))
	for i := 0; i < n; i++ {
		var c color.RGBA
		if i < len(p) {
			c = p[i]
		}
		buf.Write([]byte{c.R, c.G, c.B})
	}
}

func litWidth(f *Frame) int {
	var maxIdx byte
	for _, c := range f.Pix {
		maxIdx = max(maxIdx, c)
	}
	lw := tableBits(int(maxIdx) + 1)
	if f.Palette != nil {
		lw = max(lw, tableBits(len(f.Palette)))
	}
	return max(lw, 2)
}

func le16(buf *bytes.Buffer, v int) {
	buf.WriteByte(byte(v))
	buf.WriteByte(byte(v >> 8))
}

// blockWriter splits a byte stream into sub-blocks of up to 255 bytes.
type blockWriter struct {
	w   io.Writer
	buf [256]byte
	n   int
}

func (b *blockWriter) Write(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		c := copy(b.buf[1+b.n:], p)
		b.n += c
		p = p[c:]
		if b.n == 255 {
			b.flush()
		}
	}
	return total, nil
}

func (b *blockWriter) flush() {
	if b.n == 0 {
		return
	}
	b.buf[0] = byte(b.n)
	b.w.Write(b.buf[:1+b.n])
	b.n = 0
}

// Close flushes pending data and writes the block terminator.
func (b *blockWriter) Close() error {
	b.flush()
	_, err := b.w.Write([]byte{0})
	return err
}
