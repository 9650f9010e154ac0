package gifcodec

import (
	"image/color"
	"sync"
)

// ColorMap is a GIF color table.
type ColorMap struct {
	BitsPerPixel int
	Colors       []color.RGBA
}

func newColorMap(bits int, rgb []byte) *ColorMap {
	m := &ColorMap{
		BitsPerPixel: bits,
		Colors:       make([]color.RGBA, len(rgb)/3),
	}
	for i := range m.Colors {
		m.Colors[i] = color.RGBA{R: rgb[3*i], G: rgb[3*i+1], B: rgb[3*i+2], A: 0xff}
	}
	return m
}

// WellFormed reports whether the table holds exactly 1<<BitsPerPixel
// entries.
func (m *ColorMap) WellFormed() bool {
	return m.BitsPerPixel >= 1 && m.BitsPerPixel <= 8 && len(m.Colors) == 1<<m.BitsPerPixel
}

// Lookup returns the color at index i. Indices past the end of the table
// resolve to entry 0; an empty table yields transparent black.
func (m *ColorMap) Lookup(i int) color.RGBA {
	if len(m.Colors) == 0 {
		return color.RGBA{}
	}
	if i < 0 || i >= len(m.Colors) {
		i = 0
	}
	return m.Colors[i]
}

var defaultColorMap = sync.OnceValue(func() *ColorMap {
	m := &ColorMap{BitsPerPixel: 8, Colors: make([]color.RGBA, 256)}
	for i := range m.Colors {
		m.Colors[i] = color.RGBA{R: uint8(i), G: uint8(i), B: uint8(i), A: 0xff}
	}
	return m
})

// DefaultColorMap returns the 256-entry greyscale table used in place of a
// malformed local table. The returned table must not be modified.
func DefaultColorMap() *ColorMap { return defaultColorMap() }
