package source

import (
	"fmt"
	"io"
	"os"
)

// windowSize is the read-ahead size of a File source.
const windowSize = 4096

// File is a Source backed by an *os.File. Reads are served with ReadAt
// through a private read-ahead window, so the file's own offset is never
// used and the logical position stays exact.
type File struct {
	f      *os.File
	length int64

	win    [windowSize]byte
	winOff int64 // file offset of win[0]
	winLen int   // valid bytes in win
	r      int   // read index into win
}

// FromFile returns a Source reading f. The File takes ownership of f and
// closes it on Close.
func FromFile(f *os.File) (*File, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("source: stat file: %w", err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("source: %s is a directory", f.Name())
	}
	return &File{f: f, length: fi.Size()}, nil
}

// Open opens the named file as a Source.
func Open(name string) (*File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	s, err := FromFile(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// fill loads the window starting at the current logical position.
func (s *File) fill() error {
	if s.f == nil {
		return ErrClosed
	}
	off := s.winOff + int64(s.r)
	if off >= s.length {
		return io.EOF
	}
	n, err := s.f.ReadAt(s.win[:], off)
	if n == 0 {
		if err == nil {
			err = io.ErrNoProgress
		}
		return err
	}
	s.winOff = off
	s.winLen = n
	s.r = 0
	return nil
}

// Read implements io.Reader.
func (s *File) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	var n int
	for n < len(p) {
		if s.r >= s.winLen {
			if err := s.fill(); err != nil {
				if n > 0 && err == io.EOF {
					return n, nil
				}
				return n, err
			}
		}
		c := copy(p[n:], s.win[s.r:s.winLen])
		s.r += c
		n += c
	}
	return n, nil
}

// ReadByte implements io.ByteReader.
func (s *File) ReadByte() (byte, error) {
	if s.r >= s.winLen {
		if err := s.fill(); err != nil {
			return 0, err
		}
	}
	c := s.win[s.r]
	s.r++
	return c, nil
}

// Len returns the size of the file when the source was created.
func (s *File) Len() int64 { return s.length }

// Position returns the logical read offset.
func (s *File) Position() int64 { return s.winOff + int64(s.r) }

// Seek moves the logical read offset to off. Seeks landing inside the
// current window keep the buffered bytes.
func (s *File) Seek(off int64) error {
	if off < 0 || off >= s.length {
		return ErrSeekRange
	}
	if off >= s.winOff && off < s.winOff+int64(s.winLen) {
		s.r = int(off - s.winOff)
		return nil
	}
	s.winOff = off
	s.winLen = 0
	s.r = 0
	return nil
}

// Close closes the underlying file.
func (s *File) Close() error {
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	s.winLen = 0
	s.r = 0
	return err
}
