package source

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func testSources(t *testing.T, data []byte) map[string]Source {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return map[string]Source{
		"bytes": FromBytes(data),
		"file":  f,
	}
}

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + i>>8)
	}
	return b
}

func TestReadShortAtEnd(t *testing.T) {
	data := pattern(10)
	for name, s := range testSources(t, data) {
		t.Run(name, func(t *testing.T) {
			if err := s.Seek(6); err != nil {
				t.Fatalf("Seek: %v", err)
			}
			buf := make([]byte, 8)
			n, err := s.Read(buf)
			if err != nil {
				t.Fatalf("short read returned error: %v", err)
			}
			if n != 4 || !bytes.Equal(buf[:n], data[6:]) {
				t.Fatalf("Read = %d %x, want 4 %x", n, buf[:n], data[6:])
			}
			if s.Position() != s.Len() {
				t.Fatalf("Position = %d, want %d", s.Position(), s.Len())
			}
			if _, err := s.Read(buf); err != io.EOF {
				t.Fatalf("read at end: err = %v, want io.EOF", err)
			}
		})
	}
}

func TestSeekOutOfRange(t *testing.T) {
	data := pattern(32)
	for name, s := range testSources(t, data) {
		t.Run(name, func(t *testing.T) {
			if err := s.Seek(5); err != nil {
				t.Fatal(err)
			}
			for _, off := range []int64{-1, 32, 100} {
				if err := s.Seek(off); !errors.Is(err, ErrSeekRange) {
					t.Errorf("Seek(%d) err = %v, want ErrSeekRange", off, err)
				}
				if s.Position() != 5 {
					t.Errorf("Position after failed Seek(%d) = %d, want 5", off, s.Position())
				}
			}
		})
	}
}

func TestSeekAndReadBack(t *testing.T) {
	data := pattern(3 * windowSize)
	for name, s := range testSources(t, data) {
		t.Run(name, func(t *testing.T) {
			offsets := []int64{int64(len(data)) - 3, 0, windowSize - 1, windowSize + 17, 2, 2*windowSize + 1}
			for _, off := range offsets {
				if err := s.Seek(off); err != nil {
					t.Fatalf("Seek(%d): %v", off, err)
				}
				c, err := s.ReadByte()
				if err != nil {
					t.Fatalf("ReadByte at %d: %v", off, err)
				}
				if c != data[off] {
					t.Fatalf("byte at %d = %#x, want %#x", off, c, data[off])
				}
				if s.Position() != off+1 {
					t.Fatalf("Position = %d, want %d", s.Position(), off+1)
				}
			}
		})
	}
}

func TestFileReadAcrossWindows(t *testing.T) {
	data := pattern(2*windowSize + 123)
	s := testSources(t, data)["file"]
	got, err := io.ReadAll(s)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("file source returned different bytes")
	}
}

func TestFromFD(t *testing.T) {
	data := pattern(64)
	path := filepath.Join(t.TempDir(), "fd.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	s, err := FromFD(int(f.Fd()))
	if err != nil {
		t.Skipf("FromFD unsupported: %v", err)
	}
	// Closing the duplicate must not affect the original descriptor.
	got, err := io.ReadAll(s)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("fd source returned different bytes")
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Stat(); err != nil {
		t.Fatalf("original descriptor unusable after closing duplicate: %v", err)
	}
}
