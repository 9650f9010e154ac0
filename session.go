package gifanim

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/deepteams/gifanim/internal/container"
	"github.com/deepteams/gifanim/internal/gifcodec"
	"github.com/deepteams/gifanim/internal/raster"
	"github.com/deepteams/gifanim/internal/source"
)

// session is the decoding state shared by an Image and its frames. The
// source, the decoder and the scratch buffer are only touched with mu
// held. The index has its own lock.
type session struct {
	mu  sync.Mutex
	src source.Source
	dec *gifcodec.Decoder
	buf raster.Buffer

	idx  *container.Index
	meta container.Metadata // as of the end of indexing
	size int64              // length of the encoded data
	log  *slog.Logger

	refs     atomic.Int32
	closeErr error
}

func newSession(src source.Source, opts *Options) (*session, error) {
	log := opts.logger()
	dec, err := gifcodec.NewDecoder(src)
	if err != nil {
		src.Close()
		return nil, classify(err)
	}
	idx := container.NewIndex()
	err = container.Scan(dec, src, idx, opts.container())
	var ie *container.IncompleteError
	switch {
	case errors.As(err, &ie):
		log.LogAttrs(context.Background(), slog.LevelDebug, "index stopped early",
			slog.Int("frames", ie.Frames), slog.Int64("offset", ie.Offset), slog.Any("error", ie.Err))
	case err != nil:
		src.Close()
		return nil, classify(err)
	}
	s := &session{
		src:  src,
		dec:  dec,
		idx:  idx,
		meta: idx.Metadata(),
		size: src.Len(),
		log:  log,
	}
	log.LogAttrs(context.Background(), slog.LevelDebug, "indexed",
		slog.Int("width", s.meta.Width), slog.Int("height", s.meta.Height),
		slog.Int("frames", idx.Len()), slog.Bool("animated", s.meta.Animated),
		slog.Int("loop", s.meta.LoopCount))
	s.refs.Store(1)
	return s, nil
}

// acquire takes a reference. It fails once the last reference has been
// released.
func (s *session) acquire() bool {
	for {
		n := s.refs.Load()
		if n <= 0 {
			return false
		}
		if s.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// release drops a reference, closing the source with the last one.
func (s *session) release() error {
	if s.refs.Add(-1) != 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeErr = s.src.Close()
	s.buf = raster.Buffer{}
	return s.closeErr
}

// render decodes frame info and writes it into dst. The whole seek,
// decode and conversion runs under the session lock.
func (s *session) render(info *container.FrameInfo, dst raster.Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refs.Load() <= 0 {
		return ErrDisposed
	}
	pix, err := raster.Decode(s.dec, s.src, info, &s.buf)
	if err != nil {
		s.log.LogAttrs(context.Background(), slog.LevelDebug, "render failed",
			slog.Int("frame", info.Index), slog.Int64("offset", info.Offset), slog.Any("error", err))
		return classify(err)
	}
	cmap := raster.ColorMapFor(info, s.meta.ColorMap)
	raster.Blit(dst, pix, info.Width, info.Height, cmap, info.TransparentIndex)
	return nil
}

// scratchSize returns the allocated size of the scratch buffer.
func (s *session) scratchSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Cap()
}
