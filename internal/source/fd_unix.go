//go:build unix

package source

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// FromFD returns a Source reading the open file descriptor fd. The
// descriptor is duplicated, so the caller keeps ownership of fd and may
// close it independently of the returned Source.
func FromFD(fd int) (*File, error) {
	nfd, err := unix.Dup(fd)
	if err != nil {
		return nil, fmt.Errorf("source: dup fd %d: %w", fd, err)
	}
	unix.CloseOnExec(nfd)
	f := os.NewFile(uintptr(nfd), fmt.Sprintf("fd%d", fd))
	if f == nil {
		unix.Close(nfd)
		return nil, fmt.Errorf("source: invalid fd %d", fd)
	}
	s, err := FromFile(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}
