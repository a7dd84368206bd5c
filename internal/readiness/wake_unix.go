//go:build unix && !linux

package readiness

import (
	"errors"

	"golang.org/x/sys/unix"
)

// createWakeFd returns the read and write ends of a non-blocking self-pipe.
func createWakeFd() (int, int, error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return -1, -1, err
	}

	for _, fd := range fds {
		unix.CloseOnExec(fd)
		if err := unix.SetNonblock(fd, true); err != nil {
			closeWakeFd(fds[0], fds[1])
			return -1, -1, err
		}
	}
	return fds[0], fds[1], nil
}

func writeWake(fd int) error {
	_, err := unix.Write(fd, []byte{1})
	if errors.Is(err, unix.EAGAIN) {
		// pipe full, a wake is already pending
		return nil
	}
	return err
}

func closeWakeFd(r, w int) {
	_ = unix.Close(r)
	if w != r {
		_ = unix.Close(w)
	}
}
