//go:build !unix

package source

import "errors"

// FromFD is only supported on unix systems.
func FromFD(fd int) (*File, error) {
	return nil, errors.New("source: file descriptors not supported on this platform")
}
