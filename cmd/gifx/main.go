// Command gifx inspects animated GIFs and extracts their frames.
//
// Usage:
//
//	gifx info [options] <input.gif>      Display GIF metadata
//	gifx frames [options] <input.gif>    List the indexed frames
//	gifx extract [options] <input.gif>   Write frames as PNG files
//
// Use "-" as input to read from stdin.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/deepteams/gifanim"
	"github.com/deepteams/gifanim/animation"
	"github.com/deepteams/gifanim/internal/logging"
)

func main() {
	os.Exit(Main())
}

// Main runs the command with os.Args and returns the exit status.
func Main() int {
	if len(os.Args) < 2 {
		printUsage()
		return 2
	}

	var err error
	switch os.Args[1] {
	case "info":
		err = runInfo(os.Args[2:])
	case "frames":
		err = runFrames(os.Args[2:])
	case "extract":
		err = runExtract(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "gifx: unknown command %q\n\n", os.Args[1])
		printUsage()
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(os.Stderr, "gifx: %v\n", err)
		return 2
	default:
		fmt.Fprintf(os.Stderr, "gifx: %v\n", err)
		return 1
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  gifx info [options] <input.gif>      Display GIF metadata
  gifx frames [options] <input.gif>    List the indexed frames
  gifx extract [options] <input.gif>   Write frames as PNG files

Use "-" as input to read from stdin.

Run "gifx <command> -h" for command-specific options.
`)
}

var errUsage = errors.New("usage")

// config is the optional TOML configuration file. Flags set on the command
// line take precedence over it.
type config struct {
	MaxDimension int    `toml:"max_dimension"`
	ForceStatic  bool   `toml:"force_static"`
	Workers      int    `toml:"workers"`
	LogLevel     string `toml:"log_level"`
}

// common holds the flags shared by every subcommand.
type common struct {
	fs       *flag.FlagSet
	config   string
	logLevel string
	maxDim   int
	static   bool
	workers  int
}

func newCommon(name string) *common {
	c := &common{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	c.fs.StringVar(&c.config, "config", "", "TOML configuration file")
	c.fs.StringVar(&c.logLevel, "log", "", "log level: debug/info/warn/error (default info)")
	c.fs.IntVar(&c.maxDim, "max", 0, "maximum canvas and frame side (0=default)")
	c.fs.BoolVar(&c.static, "static", false, "index only the first frame")
	return c
}

// parse parses args and resolves the configuration file. It returns the
// single input path.
func (c *common) parse(args []string) (string, error) {
	if err := c.fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", errUsage, err)
	}
	if c.fs.NArg() != 1 {
		return "", fmt.Errorf("%w: gifx %s [options] <input.gif>", errUsage, c.fs.Name())
	}
	if c.config == "" {
		return c.fs.Arg(0), nil
	}
	var cfg config
	if _, err := toml.DecodeFile(c.config, &cfg); err != nil {
		return "", fmt.Errorf("config: %w", err)
	}
	set := make(map[string]bool)
	c.fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if !set["max"] {
		c.maxDim = cfg.MaxDimension
	}
	if !set["static"] {
		c.static = cfg.ForceStatic
	}
	if !set["workers"] {
		c.workers = cfg.Workers
	}
	if !set["log"] {
		c.logLevel = cfg.LogLevel
	}
	return c.fs.Arg(0), nil
}

func (c *common) logger() (*slog.Logger, error) {
	level, err := logging.ParseLevel(c.logLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: -log: %v", errUsage, err)
	}
	return logging.New(os.Stderr, level), nil
}

// open indexes the GIF at path, or stdin when path is "-".
func (c *common) open(path string, log *slog.Logger) (*gifanim.Image, error) {
	opts := &gifanim.Options{
		MaxDimension: c.maxDim,
		ForceStatic:  c.static,
		Logger:       log,
	}
	if path == "-" {
		return gifanim.Open(os.Stdin, opts)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return gifanim.OpenFile(f, opts)
}

func (c *common) setup(args []string) (*gifanim.Image, string, *slog.Logger, error) {
	path, err := c.parse(args)
	if err != nil {
		return nil, "", nil, err
	}
	log, err := c.logger()
	if err != nil {
		return nil, "", nil, err
	}
	img, err := c.open(path, log)
	if err != nil {
		return nil, "", nil, fmt.Errorf("%s: %w", c.fs.Name(), err)
	}
	if path == "-" {
		path = "<stdin>"
	}
	return img, path, log, nil
}

// --- info ---

func runInfo(args []string) error {
	c := newCommon("info")
	img, name, _, err := c.setup(args)
	if err != nil {
		return err
	}
	defer img.Close()
	printInfo(os.Stdout, name, img)
	return nil
}

func printInfo(w io.Writer, name string, img *gifanim.Image) {
	loop := "infinite"
	if n := img.LoopCount(); n != 0 {
		loop = fmt.Sprint(n)
	}
	fmt.Fprintf(w, "File:       %s\n", name)
	fmt.Fprintf(w, "Dimensions: %d x %d\n", img.Width(), img.Height())
	fmt.Fprintf(w, "Frames:     %d\n", img.FrameCount())
	fmt.Fprintf(w, "Animated:   %v\n", img.IsAnimated())
	fmt.Fprintf(w, "Loop:       %s\n", loop)
	fmt.Fprintf(w, "Duration:   %v\n", time.Duration(img.Duration())*time.Millisecond)
	fmt.Fprintf(w, "Incomplete: %v\n", img.Incomplete())
	bg := img.BackgroundColor()
	fmt.Fprintf(w, "Background: #%02x%02x%02x%02x\n", bg.R, bg.G, bg.B, bg.A)
}

// --- frames ---

func runFrames(args []string) error {
	c := newCommon("frames")
	img, _, _, err := c.setup(args)
	if err != nil {
		return err
	}
	defer img.Close()
	for i := 0; i < img.FrameCount(); i++ {
		info, err := img.FrameInfo(i)
		if err != nil {
			return err
		}
		fmt.Printf("%3d  %dx%d+%d+%d  %dms  dispose=%v  transparent=%v  interlaced=%v\n",
			info.Index, info.Width, info.Height, info.XOffset, info.YOffset,
			info.Duration, info.Disposal, info.HasTransparency, info.Interlaced)
	}
	return nil
}

// --- extract ---

func runExtract(args []string) error {
	c := newCommon("extract")
	output := c.fs.String("o", ".", "output directory")
	frame := c.fs.Int("frame", -1, "extract only this frame (-1=all)")
	canvas := c.fs.Bool("canvas", false, "write composited canvases instead of raw frames")
	c.fs.IntVar(&c.workers, "workers", 0, "concurrent frame renders (0=GOMAXPROCS)")

	img, _, log, err := c.setup(args)
	if err != nil {
		return err
	}
	defer img.Close()

	if *frame >= img.FrameCount() {
		return fmt.Errorf("extract: frame %d: %w", *frame, gifanim.ErrFrameRange)
	}
	if err := os.MkdirAll(*output, 0o755); err != nil {
		return err
	}

	if *canvas {
		return extractCanvas(img, *output, *frame, log)
	}
	if *frame >= 0 {
		f, err := img.Frame(*frame)
		if err != nil {
			return err
		}
		defer f.Close()
		log.Debug("rendering frame", slog.Any("frame", logging.Stringer{Stringer: f}))
		m := image.NewRGBA(image.Rect(0, 0, f.Width(), f.Height()))
		if err := f.Render(m); err != nil {
			return fmt.Errorf("extract: frame %d: %w", *frame, err)
		}
		return writePNG(filepath.Join(*output, frameName("frame", *frame)), m, *frame, log)
	}
	return animation.RenderFrames(img, c.workers, func(i int, m *image.RGBA) error {
		return writePNG(filepath.Join(*output, frameName("frame", i)), m, i, log)
	})
}

// extractCanvas plays img and writes the canvas after each frame, or only
// after frame k when k is not negative.
func extractCanvas(img *gifanim.Image, dir string, k int, log *slog.Logger) error {
	p := animation.NewPlayer(img)
	for p.HasNext() {
		i := p.Position()
		m, _, err := p.NextFrame()
		if err != nil {
			return fmt.Errorf("extract: frame %d: %w", i, err)
		}
		if k >= 0 && i != k {
			continue
		}
		if err := writePNG(filepath.Join(dir, frameName("canvas", i)), m, i, log); err != nil {
			return err
		}
		if i == k {
			break
		}
	}
	return nil
}

func frameName(prefix string, i int) string {
	return fmt.Sprintf("%s_%03d.png", prefix, i)
}

func writePNG(path string, m image.Image, i int, log *slog.Logger) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, m); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Debug("wrote frame", slog.Int("frame", i), slog.String("path", path))
	return nil
}
