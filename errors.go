package gifanim

import (
	"errors"
	"fmt"

	"github.com/deepteams/gifanim/internal/container"
	"github.com/deepteams/gifanim/internal/gifcodec"
	"github.com/deepteams/gifanim/internal/raster"
	"github.com/deepteams/gifanim/internal/source"
)

// Errors returned by the decoder.
var (
	ErrMalformed         = errors.New("gifanim: malformed GIF data")
	ErrOversized         = errors.New("gifanim: image dimensions exceed limit")
	ErrTruncated         = errors.New("gifanim: truncated GIF data")
	ErrDisposed          = errors.New("gifanim: already disposed")
	ErrUnsupportedLayout = errors.New("gifanim: unsupported pixel layout")
	ErrFrameRange        = errors.New("gifanim: frame index out of range")
	ErrStaleOffset       = errors.New("gifanim: frame offset no longer valid")
	ErrBadBitmap         = errors.New("gifanim: bitmap geometry does not fit its buffer")
)

// classify maps an internal error onto the package error set. The
// original error stays in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var kind error
	switch {
	case errors.Is(err, container.ErrOversized):
		kind = ErrOversized
	case errors.Is(err, raster.ErrStaleOffset):
		kind = ErrStaleOffset
	case errors.Is(err, gifcodec.ErrTruncated):
		kind = ErrTruncated
	case errors.Is(err, source.ErrClosed):
		kind = ErrDisposed
	case errors.Is(err, container.ErrNoFrames),
		errors.Is(err, container.ErrEmptyCanvas),
		errors.Is(err, gifcodec.ErrNotGIF),
		errors.Is(err, gifcodec.ErrBadRecord),
		errors.Is(err, gifcodec.ErrBadCodeSize),
		errors.Is(err, gifcodec.ErrNotEnough),
		errors.Is(err, gifcodec.ErrLineTooLong),
		errors.Is(err, gifcodec.ErrNoImage),
		errors.Is(err, gifcodec.ErrBadExtension),
		errors.Is(err, gifcodec.ErrBadData):
		kind = ErrMalformed
	default:
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
