package animation

import (
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/deepteams/gifanim"
	"github.com/deepteams/gifanim/internal/giftest"
)

var pal = giftest.Palette(4)

func open(t *testing.T, g *giftest.GIF) *gifanim.Image {
	t.Helper()
	img, err := gifanim.OpenBytes(g.Bytes(), nil)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	t.Cleanup(func() { img.Close() })
	return img
}

func next(t *testing.T, p *Player) *image.RGBA {
	t.Helper()
	m, _, err := p.NextFrame()
	if err != nil {
		t.Fatalf("NextFrame at %d: %v", p.Position(), err)
	}
	return m
}

func checkPixel(t *testing.T, m *image.RGBA, x, y int, want color.RGBA) {
	t.Helper()
	if got := m.RGBAAt(x, y); got != want {
		t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
	}
}

// --- Player canvas reconstruction tests ---

func TestPlayer_SingleFrame(t *testing.T) {
	img := open(t, &giftest.GIF{
		Width: 4, Height: 4, Palette: pal,
		Frames: []giftest.Frame{{W: 4, H: 4, Pix: giftest.Solid(4, 4, 2), Delay: 7}},
	})
	p := NewPlayer(img)
	if !p.HasNext() {
		t.Fatal("HasNext = false before the first frame")
	}
	m, d, err := p.NextFrame()
	if err != nil {
		t.Fatalf("NextFrame: %v", err)
	}
	if d != 70*time.Millisecond {
		t.Errorf("duration = %v, want 70ms", d)
	}
	if m.Bounds() != image.Rect(0, 0, 4, 4) {
		t.Fatalf("bounds = %v", m.Bounds())
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			checkPixel(t, m, x, y, pal[2])
		}
	}
	if p.HasNext() {
		t.Error("HasNext = true after the only frame")
	}
	if _, _, err := p.NextFrame(); !errors.Is(err, ErrNoMoreFrames) {
		t.Errorf("NextFrame past the end: err = %v, want ErrNoMoreFrames", err)
	}
}

func TestPlayer_PartialFrame(t *testing.T) {
	img := open(t, &giftest.GIF{
		Width: 6, Height: 6, Palette: pal,
		Frames: []giftest.Frame{
			{W: 6, H: 6, Pix: giftest.Solid(6, 6, 1)},
			{X: 2, Y: 3, W: 2, H: 2, Pix: giftest.Solid(2, 2, 3)},
		},
	})
	p := NewPlayer(img)
	next(t, p)
	m := next(t, p)
	checkPixel(t, m, 0, 0, pal[1])
	checkPixel(t, m, 2, 3, pal[3])
	checkPixel(t, m, 3, 4, pal[3])
	checkPixel(t, m, 4, 4, pal[1])
	checkPixel(t, m, 2, 2, pal[1])
}

func TestPlayer_TransparentShowsCanvas(t *testing.T) {
	img := open(t, &giftest.GIF{
		Width: 2, Height: 1, Palette: pal,
		Frames: []giftest.Frame{
			{W: 2, H: 1, Pix: []byte{1, 1}},
			{W: 2, H: 1, Pix: []byte{0, 2}, Transparent: 0, HasTransparent: true},
		},
	})
	p := NewPlayer(img)
	next(t, p)
	m := next(t, p)
	checkPixel(t, m, 0, 0, pal[1])
	checkPixel(t, m, 1, 0, pal[2])
}

func TestPlayer_TransparentFirstFrame(t *testing.T) {
	img := open(t, &giftest.GIF{
		Width: 2, Height: 1, Palette: pal,
		Frames: []giftest.Frame{
			{W: 2, H: 1, Pix: []byte{3, 1}, Transparent: 3, HasTransparent: true},
		},
	})
	m := next(t, NewPlayer(img))
	checkPixel(t, m, 0, 0, color.RGBA{})
	checkPixel(t, m, 1, 0, pal[1])
}

func TestPlayer_DisposeBackground(t *testing.T) {
	img := open(t, &giftest.GIF{
		Width: 4, Height: 4, Palette: pal,
		Frames: []giftest.Frame{
			{W: 4, H: 4, Pix: giftest.Solid(4, 4, 1)},
			{X: 1, Y: 1, W: 2, H: 2, Pix: giftest.Solid(2, 2, 2), Disposal: 2},
			{W: 1, H: 1, Pix: []byte{3}},
		},
	})
	p := NewPlayer(img)
	next(t, p)
	shown := next(t, p)
	checkPixel(t, shown, 1, 1, pal[2])

	m := next(t, p)
	checkPixel(t, m, 0, 0, pal[3])
	checkPixel(t, m, 1, 1, color.RGBA{})
	checkPixel(t, m, 2, 2, color.RGBA{})
	checkPixel(t, m, 3, 3, pal[1])
	checkPixel(t, m, 3, 1, pal[1])
}

func TestPlayer_DisposePrevious(t *testing.T) {
	img := open(t, &giftest.GIF{
		Width: 4, Height: 4, Palette: pal,
		Frames: []giftest.Frame{
			{W: 4, H: 4, Pix: giftest.Solid(4, 4, 1)},
			{X: 1, Y: 1, W: 2, H: 2, Pix: giftest.Solid(2, 2, 2), Disposal: 3},
			{W: 1, H: 1, Pix: []byte{3}},
		},
	})
	p := NewPlayer(img)
	next(t, p)
	next(t, p)
	m := next(t, p)
	checkPixel(t, m, 0, 0, pal[3])
	checkPixel(t, m, 1, 1, pal[1])
	checkPixel(t, m, 2, 2, pal[1])
}

func TestPlayer_DisposePreviousFirstFrame(t *testing.T) {
	img := open(t, &giftest.GIF{
		Width: 2, Height: 1, Palette: pal,
		Frames: []giftest.Frame{
			{W: 2, H: 1, Pix: []byte{1, 1}, Disposal: 3},
			{W: 1, H: 1, Pix: []byte{2}},
		},
	})
	p := NewPlayer(img)
	next(t, p)
	m := next(t, p)
	checkPixel(t, m, 0, 0, pal[2])
	checkPixel(t, m, 1, 0, color.RGBA{})
}

func TestPlayer_DoNotDispose(t *testing.T) {
	img := open(t, &giftest.GIF{
		Width: 3, Height: 1, Palette: pal,
		Frames: []giftest.Frame{
			{W: 1, H: 1, Pix: []byte{1}, Disposal: 1},
			{X: 1, W: 1, H: 1, Pix: []byte{2}, Disposal: 1},
			{X: 2, W: 1, H: 1, Pix: []byte{3}},
		},
	})
	p := NewPlayer(img)
	next(t, p)
	next(t, p)
	m := next(t, p)
	checkPixel(t, m, 0, 0, pal[1])
	checkPixel(t, m, 1, 0, pal[2])
	checkPixel(t, m, 2, 0, pal[3])
}

func TestPlayer_FrameOutsideCanvas(t *testing.T) {
	img := open(t, &giftest.GIF{
		Width: 3, Height: 3, Palette: pal,
		Frames: []giftest.Frame{
			{X: 2, Y: 2, W: 4, H: 4, Pix: giftest.Solid(4, 4, 2)},
		},
	})
	m := next(t, NewPlayer(img))
	checkPixel(t, m, 2, 2, pal[2])
	checkPixel(t, m, 1, 1, color.RGBA{})
}

func TestPlayer_SnapshotIsCopy(t *testing.T) {
	img := open(t, &giftest.GIF{
		Width: 2, Height: 2, Palette: pal,
		Frames: []giftest.Frame{
			{W: 2, H: 2, Pix: giftest.Solid(2, 2, 1)},
			{W: 2, H: 2, Pix: giftest.Solid(2, 2, 2)},
		},
	})
	p := NewPlayer(img)
	first := next(t, p)
	saved := append([]byte(nil), first.Pix...)
	next(t, p)
	if diff := cmp.Diff(saved, first.Pix); diff != "" {
		t.Errorf("first snapshot changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(p.Canvas().Pix, first.Pix); diff == "" {
		t.Error("canvas still equals the first snapshot")
	}
}

func TestPlayer_Reset(t *testing.T) {
	img := open(t, &giftest.GIF{
		Width: 5, Height: 5, Palette: pal,
		Frames: []giftest.Frame{
			{W: 5, H: 5, Pix: giftest.Pattern(5, 5, 4), Delay: 3},
			{X: 1, W: 3, H: 3, Pix: giftest.Solid(3, 3, 0), Delay: 4, Disposal: 2},
			{Y: 2, W: 2, H: 2, Pix: giftest.Solid(2, 2, 3), Delay: 5},
		},
	})
	p := NewPlayer(img)
	var first [][]byte
	var durations []time.Duration
	for p.HasNext() {
		m, d, err := p.NextFrame()
		if err != nil {
			t.Fatalf("NextFrame: %v", err)
		}
		first = append(first, m.Pix)
		durations = append(durations, d)
	}
	want := []time.Duration{30 * time.Millisecond, 40 * time.Millisecond, 50 * time.Millisecond}
	if diff := cmp.Diff(want, durations); diff != "" {
		t.Errorf("durations (-want +got):\n%s", diff)
	}

	p.Reset()
	if p.Position() != 0 || !p.HasNext() {
		t.Fatalf("after Reset: position = %d, HasNext = %v", p.Position(), p.HasNext())
	}
	for i := range first {
		m := next(t, p)
		if diff := cmp.Diff(first[i], m.Pix); diff != "" {
			t.Errorf("replayed frame %d differs (-first +replay):\n%s", i, diff)
		}
	}
}

func TestPlayer_ClosedImage(t *testing.T) {
	img := open(t, &giftest.GIF{
		Width: 2, Height: 2, Palette: pal,
		Frames: []giftest.Frame{{W: 2, H: 2, Pix: giftest.Solid(2, 2, 1)}},
	})
	p := NewPlayer(img)
	img.Close()
	if _, _, err := p.NextFrame(); !errors.Is(err, gifanim.ErrDisposed) {
		t.Errorf("NextFrame on closed image: err = %v, want ErrDisposed", err)
	}
}

// --- RenderFrames tests ---

func renderSerial(t *testing.T, img *gifanim.Image) [][]byte {
	t.Helper()
	var out [][]byte
	for i := 0; i < img.FrameCount(); i++ {
		f, err := img.Frame(i)
		if err != nil {
			t.Fatalf("Frame(%d): %v", i, err)
		}
		m := image.NewRGBA(image.Rect(0, 0, f.Width(), f.Height()))
		if err := f.Render(m); err != nil {
			t.Fatalf("Render(%d): %v", i, err)
		}
		f.Close()
		out = append(out, m.Pix)
	}
	return out
}

func manyFrames(n int) *giftest.GIF {
	g := &giftest.GIF{Width: 8, Height: 8, Palette: giftest.Palette(16)}
	for i := 0; i < n; i++ {
		w, h := 1+i%8, 8-i%8
		g.Frames = append(g.Frames, giftest.Frame{
			X: (i * 3) % (9 - w), W: w, H: h,
			Pix: giftest.Pattern(w, h, 1+i%16), Delay: i,
			Interlaced: i%3 == 0,
		})
	}
	return g
}

func TestRenderFrames_MatchesSerial(t *testing.T) {
	img := open(t, manyFrames(12))
	want := renderSerial(t, img)

	for _, workers := range []int{0, 1, 3, 32} {
		got := make([][]byte, img.FrameCount())
		var mu sync.Mutex
		err := RenderFrames(img, workers, func(i int, m *image.RGBA) error {
			mu.Lock()
			defer mu.Unlock()
			got[i] = append([]byte(nil), m.Pix...)
			return nil
		})
		if err != nil {
			t.Fatalf("RenderFrames(workers=%d): %v", workers, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("RenderFrames(workers=%d) differs (-serial +parallel):\n%s", workers, diff)
		}
	}
}

func TestRenderFrames_CallbackError(t *testing.T) {
	img := open(t, manyFrames(10))
	errBoom := errors.New("boom")
	for _, workers := range []int{1, 4} {
		err := RenderFrames(img, workers, func(i int, _ *image.RGBA) error {
			if i == 2 {
				return errBoom
			}
			return nil
		})
		if !errors.Is(err, errBoom) {
			t.Errorf("workers=%d: err = %v, want %v", workers, err, errBoom)
		}
	}
}

func TestRenderFrames_ClosedImage(t *testing.T) {
	img := open(t, manyFrames(4))
	img.Close()
	err := RenderFrames(img, 2, func(int, *image.RGBA) error { return nil })
	if !errors.Is(err, gifanim.ErrDisposed) {
		t.Errorf("err = %v, want ErrDisposed", err)
	}
}

func TestRenderFrames_FrameSize(t *testing.T) {
	img := open(t, manyFrames(8))
	var mu sync.Mutex
	sizes := map[int]image.Point{}
	err := RenderFrames(img, 4, func(i int, m *image.RGBA) error {
		mu.Lock()
		sizes[i] = m.Bounds().Size()
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("RenderFrames: %v", err)
	}
	for i := 0; i < img.FrameCount(); i++ {
		info, err := img.FrameInfo(i)
		if err != nil {
			t.Fatal(err)
		}
		if want := image.Pt(info.Width, info.Height); sizes[i] != want {
			t.Errorf("frame %d size = %v, want %v", i, sizes[i], want)
		}
	}
}
