package container

import (
	"fmt"

	"github.com/deepteams/gifanim/internal/gifcodec"
)

// Options controls indexing.
type Options struct {
	// MaxDimension bounds the canvas and every frame side. Zero selects
	// DefaultMaxDimension.
	MaxDimension int

	// ForceStatic stops after the first frame. The file is still reported
	// as animated when a second image record is present.
	ForceStatic bool
}

// Source is the positioned byte stream that a Decoder reads from.
type Source interface {
	Position() int64
}

// IncompleteError reports that indexing stopped on a decode error after
// some frames had been recovered. The index holds every frame before the
// failure and can be used normally.
type IncompleteError struct {
	Frames int   // frames recovered
	Offset int64 // source position when the error occurred
	Err    error
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("gif: index stopped after %d frames at offset %d: %v", e.Frames, e.Offset, e.Err)
}

func (e *IncompleteError) Unwrap() error { return e.Err }

// Scan reads every record of the stream dec is positioned on and appends
// a FrameInfo per image to idx. src must be the reader dec consumes.
//
// Oversized frames and empty or oversized canvases are fatal. Any other
// error ends the pass: with no frames recovered it is returned as is,
// otherwise the index keeps the frames read so far, its metadata is
// marked Incomplete and an *IncompleteError is returned.
func Scan(dec *gifcodec.Decoder, src Source, idx *Index, opts Options) error {
	maxDim := opts.MaxDimension
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	if err := checkCanvas(dec.Width, dec.Height, maxDim); err != nil {
		return err
	}
	idx.updateMetadata(func(m *Metadata) {
		m.Version = dec.Version
		m.Width, m.Height = dec.Width, dec.Height
		m.BackgroundIndex = dec.BackgroundIndex
		m.ColorMap = dec.ColorMap
	})

	var (
		pending  []gifcodec.ExtensionBlock
		animated bool
		loop     = LoopCountMissing
		stop     error
	)
scan:
	for {
		rt, err := dec.RecordType()
		if err != nil {
			stop = err
			break
		}
		switch rt {
		case gifcodec.RecordImage:
			if idx.Len() >= 1 {
				animated = true
				if opts.ForceStatic {
					break scan
				}
			}
			offset := src.Position()
			if err := dec.ImageDesc(); err != nil {
				stop = err
				break scan
			}
			img := dec.Image
			if err := checkFrame(img.Width, img.Height, maxDim); err != nil {
				return fmt.Errorf("frame %d: %w", idx.Len(), err)
			}
			if err := dec.SkipRaster(); err != nil {
				stop = err
				break scan
			}
			info := FrameInfo{
				Offset:           offset,
				XOffset:          img.Left,
				YOffset:          img.Top,
				Width:            img.Width,
				Height:           img.Height,
				Interlaced:       img.Interlace,
				TransparentIndex: NoTransparentIndex,
				ColorMap:         img.ColorMap,
			}
			applyGraphicControl(&info, pending)
			if loop == LoopCountMissing {
				if n, ok := loopCount(pending); ok {
					loop = n
				}
			}
			pending = nil
			idx.Append(info)

		case gifcodec.RecordExtension:
			blocks, err := dec.Extension()
			if err != nil {
				stop = err
				break scan
			}
			pending = append(pending, blocks...)

		case gifcodec.RecordTerminate:
			break scan
		}
	}

	n := idx.Len()
	idx.updateMetadata(func(m *Metadata) {
		m.Animated = animated
		m.LoopCount = loop
		m.Incomplete = stop != nil && n > 0
	})
	if stop == nil {
		if n == 0 {
			return ErrNoFrames
		}
		return nil
	}
	if n == 0 {
		return stop
	}
	return &IncompleteError{Frames: n, Offset: src.Position(), Err: stop}
}

func checkCanvas(w, h, maxDim int) error {
	if w < 1 || h < 1 {
		return fmt.Errorf("%w: %dx%d", ErrEmptyCanvas, w, h)
	}
	if w > maxDim || h > maxDim {
		return fmt.Errorf("%w: canvas %dx%d, limit %d", ErrOversized, w, h, maxDim)
	}
	return nil
}

// checkFrame validates frame sides before any pixel buffer is sized from
// them. Zero-sized frames are allowed.
func checkFrame(w, h, maxDim int) error {
	if w > maxDim || h > maxDim {
		return fmt.Errorf("%w: frame %dx%d, limit %d", ErrOversized, w, h, maxDim)
	}
	if int64(w)*int64(h) > maxFrameArea {
		return fmt.Errorf("%w: frame area %dx%d overflows", ErrOversized, w, h)
	}
	return nil
}

// applyGraphicControl resolves timing, disposal and transparency from the
// last well-formed graphic control extension among blocks. A malformed
// block is skipped, so an earlier well-formed one still applies. Decoders
// built on giflib's per-image lookup differ here: they do not fall back,
// and a frame whose chosen block is malformed gets no delay or
// transparency.
func applyGraphicControl(info *FrameInfo, blocks []gifcodec.ExtensionBlock) {
	for _, b := range blocks {
		if b.Function != gifcodec.GraphicsExtFuncCode {
			continue
		}
		gcb, err := gifcodec.ParseGCB(b.Data)
		if err != nil {
			continue
		}
		info.Disposal = Disposal(gcb.Disposal)
		info.TransparentIndex = gcb.TransparentColor
		info.Duration = gcb.DelayTime * 10
	}
}

// loopCount returns the repeat count of the first well-formed looping
// application extension among blocks.
func loopCount(blocks []gifcodec.ExtensionBlock) (int, bool) {
	for i, b := range blocks {
		if b.Function != gifcodec.ApplicationExtFuncCode || !isLoopApp(b.Data) {
			continue
		}
		if i+1 >= len(blocks) {
			continue
		}
		sub := blocks[i+1]
		if sub.Function != gifcodec.ContinueExtFuncCode || len(sub.Data) != 3 {
			continue
		}
		return int(sub.Data[1]) | int(sub.Data[2])<<8, true
	}
	return 0, false
}

func isLoopApp(id []byte) bool {
	for _, app := range loopApps {
		if string(id) == app {
			return true
		}
	}
	return false
}
