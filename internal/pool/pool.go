// Package pool provides bucketed sync.Pool instances for the pixel buffers
// that frames are rendered into. Buffers are organized by power-of-two size
// class so frames of similar size share storage.
package pool

import (
	"image"
	"sync"
)

// Size classes range from minClass to maxClass bytes. Larger requests are
// served from the largest class or allocated directly.
const (
	minClassShift = 10 // 1 KiB
	maxClassShift = 24 // 16 MiB
	numClasses    = maxClassShift - minClassShift + 1

	MinSize = 1 << minClassShift
	MaxSize = 1 << maxClassShift
)

var pools [numClasses]sync.Pool

func init() {
	for i := range pools {
		sz := 1 << (minClassShift + i)
		pools[i] = sync.Pool{
			New: func() any {
				b := make([]byte, sz)
				return &b
			},
		}
	}
}

// bucketIndex returns the pool index for a given size.
func bucketIndex(size int) int {
	idx := 0
	for idx < numClasses-1 && size > 1<<(minClassShift+idx) {
		idx++
	}
	return idx
}

// Get returns a byte slice of length size from the pool. Its contents are
// unspecified. The caller should call Put when done.
func Get(size int) []byte {
	idx := bucketIndex(size)
	bp := pools[idx].Get().(*[]byte)
	b := *bp
	if cap(b) < size {
		b = make([]byte, size)
		*bp = b
		return b
	}
	return b[:size]
}

// Put returns a byte slice to the pool. Slices smaller than MinSize are
// dropped.
func Put(b []byte) {
	c := cap(b)
	if c < MinSize {
		return
	}
	// Store under the largest class the capacity fully covers.
	idx := bucketIndex(c)
	if c < 1<<(minClassShift+idx) {
		idx--
	}
	b = b[:c]
	pools[idx].Put(&b)
}

// GetRGBA returns a w×h RGBA image backed by a pooled buffer. Its pixels
// are unspecified.
func GetRGBA(w, h int) *image.RGBA {
	return &image.RGBA{
		Pix:    Get(4 * w * h),
		Stride: 4 * w,
		Rect:   image.Rect(0, 0, w, h),
	}
}

// PutRGBA returns the buffer of an image obtained from GetRGBA. The image
// must not be used afterwards.
func PutRGBA(m *image.RGBA) {
	Put(m.Pix)
	m.Pix = nil
}
