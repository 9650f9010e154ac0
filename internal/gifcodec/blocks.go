package gifcodec

import "io"

// blockReader presents a chain of data sub-blocks as a single byte stream.
// It reads exactly one sub-block at a time from the underlying reader and
// reports io.EOF once the zero-length terminator has been consumed.
type blockReader struct {
	r    Reader
	buf  [255]byte
	i, n int
	err  error
}

func (b *blockReader) reset(r Reader) {
	b.r = r
	b.i, b.n = 0, 0
	b.err = nil
}

// next loads the next sub-block.
func (b *blockReader) next() bool {
	if b.err != nil {
		return false
	}
	size, err := b.r.ReadByte()
	if err != nil {
		b.err = truncated(err)
		return false
	}
	if size == 0 {
		b.err = io.EOF
		return false
	}
	b.i, b.n = 0, int(size)
	if _, err := io.ReadFull(b.r, b.buf[:b.n]); err != nil {
		b.err = truncated(err)
		return false
	}
	return true
}

func (b *blockReader) ReadByte() (byte, error) {
	for b.i == b.n {
		if !b.next() {
			return 0, b.err
		}
	}
	c := b.buf[b.i]
	b.i++
	return c, nil
}

func (b *blockReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for b.i == b.n {
		if !b.next() {
			return 0, b.err
		}
	}
	n := copy(p, b.buf[b.i:b.n])
	b.i += n
	return n, nil
}

// drain discards the rest of the current sub-block and every following
// sub-block up to and including the terminator.
func (b *blockReader) drain() error {
	b.i = b.n
	for b.next() {
		b.i = b.n
	}
	if b.err == io.EOF {
		return nil
	}
	return b.err
}

// readSubBlock reads one length-prefixed sub-block from r into buf and
// returns its payload. A nil slice with a nil error means the terminator
// was read.
func readSubBlock(r Reader, buf *[255]byte) ([]byte, error) {
	size, err := r.ReadByte()
	if err != nil {
		return nil, truncated(err)
	}
	if size == 0 {
		return nil, nil
	}
	if _, err := io.ReadFull(r, buf[:size]); err != nil {
		return nil, truncated(err)
	}
	return buf[:size], nil
}

func truncated(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrTruncated
	}
	return err
}
