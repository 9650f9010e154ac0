package raster

import (
	"image/color"

	"github.com/deepteams/gifanim/internal/container"
	"github.com/deepteams/gifanim/internal/gifcodec"
)

// Target is an RGBA8888 destination: 4 bytes per pixel, rows Stride bytes
// apart.
type Target struct {
	Pix           []byte
	Width, Height int
	Stride        int
}

// ColorMapFor returns the color table a frame is drawn with: its local
// table, the default greyscale table when the local one is malformed, or
// the global table, which may be nil.
func ColorMapFor(info *container.FrameInfo, global *gifcodec.ColorMap) *gifcodec.ColorMap {
	if info.ColorMap != nil {
		// Parsed tables are always well formed; this guards hand-built ones.
		if !info.ColorMap.WellFormed() {
			return gifcodec.DefaultColorMap()
		}
		return info.ColorMap
	}
	return global
}

// TransparentColor returns the color the frame's transparent index maps to
// in cmap, or transparent black when there is none.
func TransparentColor(info *container.FrameInfo, cmap *gifcodec.ColorMap) color.RGBA {
	if cmap == nil || !info.HasTransparency() {
		return color.RGBA{}
	}
	return cmap.Lookup(info.TransparentIndex)
}

// Blit converts the w×h index image pix into dst starting at dst's origin.
// Pixels equal to transparent become four zero bytes; a nil cmap makes
// every pixel transparent. Only the region both images share is written.
func Blit(dst Target, pix []byte, w, h int, cmap *gifcodec.ColorMap, transparent int) {
	rows := min(h, dst.Height)
	cols := min(w, dst.Width)
	for y := 0; y < rows; y++ {
		src := pix[y*w : y*w+cols]
		out := dst.Pix[y*dst.Stride : y*dst.Stride+4*cols]
		blitLine(out, src, cmap, transparent)
	}
}

func blitLine(out, src []byte, cmap *gifcodec.ColorMap, transparent int) {
	for i, c := range src {
		o := out[4*i : 4*i+4 : 4*i+4]
		if int(c) == transparent || cmap == nil {
			o[0], o[1], o[2], o[3] = 0, 0, 0, 0
			continue
		}
		rgba := cmap.Lookup(int(c))
		o[0], o[1], o[2], o[3] = rgba.R, rgba.G, rgba.B, rgba.A
	}
}
