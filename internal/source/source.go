// Package source provides the seekable byte sources that GIF data is read
// from. A Source hands out bytes in exactly the order they are requested and
// reports a logical position that always matches the next byte to be
// delivered, so callers may record offsets and seek back to them later.
package source

import (
	"errors"
	"io"
)

// ErrSeekRange is returned when seeking to an offset at or beyond the end
// of the data. The position is left unchanged.
var ErrSeekRange = errors.New("source: seek offset out of range")

// ErrClosed is returned by operations on a closed source.
var ErrClosed = errors.New("source: closed")

// Source is a readable, absolutely seekable byte provider.
//
// Read never reads past the end of the underlying storage; a short read at
// the end of data is not an error. A Read at the end of data returns io.EOF.
type Source interface {
	io.Reader
	io.ByteReader

	// Len returns the total length of the data in bytes.
	Len() int64

	// Position returns the offset of the next byte to be read.
	Position() int64

	// Seek moves the read position to off. Offsets outside [0, Len)
	// fail with ErrSeekRange.
	Seek(off int64) error

	// Close releases the resources held by the source.
	Close() error
}

// Bytes is an in-memory Source.
type Bytes struct {
	data []byte
	pos  int64
}

// FromBytes returns a Source reading from b. The slice is not copied; the
// caller must not modify it while the Source is in use.
func FromBytes(b []byte) *Bytes {
	return &Bytes{data: b}
}

// Read implements io.Reader.
func (s *Bytes) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if s.pos >= int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.data[s.pos:])
	s.pos += int64(n)
	return n, nil
}

// ReadByte implements io.ByteReader.
func (s *Bytes) ReadByte() (byte, error) {
	if s.pos >= int64(len(s.data)) {
		return 0, io.EOF
	}
	c := s.data[s.pos]
	s.pos++
	return c, nil
}

// Len returns the length of the buffer.
func (s *Bytes) Len() int64 { return int64(len(s.data)) }

// Position returns the current read offset.
func (s *Bytes) Position() int64 { return s.pos }

// Seek moves the read offset to off.
func (s *Bytes) Seek(off int64) error {
	if off < 0 || off >= int64(len(s.data)) {
		return ErrSeekRange
	}
	s.pos = off
	return nil
}

// Close drops the reference to the buffer.
func (s *Bytes) Close() error {
	s.data = nil
	s.pos = 0
	return nil
}
