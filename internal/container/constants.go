// Package container builds the frame index of a GIF file. A single forward
// pass over the records notes where every image starts, its geometry and
// its timing, and skips the pixel data so nothing decoded is retained.
package container

import (
	"errors"
	"fmt"
	"math"
)

// Disposal specifies what happens to a frame's area before the next frame
// is drawn.
type Disposal int

const (
	DisposalUnspecified Disposal = 0
	DisposeDoNot        Disposal = 1
	DisposeBackground   Disposal = 2
	DisposePrevious     Disposal = 3
)

// String returns the disposal name.
func (d Disposal) String() string {
	switch d {
	case DisposalUnspecified:
		return "unspecified"
	case DisposeDoNot:
		return "none"
	case DisposeBackground:
		return "background"
	case DisposePrevious:
		return "previous"
	}
	return fmt.Sprintf("Disposal(%d)", int(d))
}

// NoTransparentIndex marks a frame without a transparent color.
const NoTransparentIndex = -1

// LoopCountMissing is the loop count of a file without a looping extension.
const LoopCountMissing = -1

// DefaultMaxDimension bounds canvas and frame sides when no limit is set.
const DefaultMaxDimension = 1 << 16

// maxFrameArea bounds width*height of a single frame.
const maxFrameArea = math.MaxInt32

// Application identifiers of the looping extension.
var loopApps = []string{"NETSCAPE2.0", "ANIMEXTS1.0"}

// Common errors.
var (
	ErrNoFrames    = errors.New("gif: no frames")
	ErrEmptyCanvas = errors.New("gif: empty logical screen")
	ErrOversized   = errors.New("gif: image dimensions exceed limit")
)
