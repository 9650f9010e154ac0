// Package animation reconstructs the full canvas of an animated GIF frame
// by frame.
//
// A gifanim.Image renders each frame on its own, at its own size. Player
// composites those frames onto a canvas the size of the logical screen and
// applies each frame's disposal method before drawing the next one.
// RenderFrames decodes frames without compositing, spreading the work over
// several goroutines that share the Image.
package animation

import (
	"image"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/deepteams/gifanim"
	"github.com/deepteams/gifanim/internal/pool"
)

// RenderFrames decodes every frame of img and passes it to fn along with
// its index. Frames are rendered at their own size. Up to workers frames
// are rendered at once; zero or less selects GOMAXPROCS. fn may be called
// from several goroutines at the same time and must not retain m after it
// returns. The first error returned by a render or by fn stops the
// remaining work and is returned.
func RenderFrames(img *gifanim.Image, workers int, fn func(i int, m *image.RGBA) error) error {
	n := img.FrameCount()
	if n == 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	if workers == 1 {
		for i := 0; i < n; i++ {
			if err := renderOne(img, i, fn); err != nil {
				return err
			}
		}
		return nil
	}

	work := make(chan int, n)
	for i := 0; i < n; i++ {
		work <- i
	}
	close(work)

	var (
		wg       sync.WaitGroup
		failed   atomic.Bool
		errOnce  sync.Once
		firstErr error
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				if failed.Load() {
					continue
				}
				if err := renderOne(img, i, fn); err != nil {
					failed.Store(true)
					errOnce.Do(func() { firstErr = err })
				}
			}
		}()
	}
	wg.Wait()
	return firstErr
}

func renderOne(img *gifanim.Image, i int, fn func(int, *image.RGBA) error) error {
	f, err := img.Frame(i)
	if err != nil {
		return err
	}
	defer f.Close()
	m := pool.GetRGBA(f.Width(), f.Height())
	defer pool.PutRGBA(m)
	if err := f.Render(m); err != nil {
		return err
	}
	return fn(i, m)
}
