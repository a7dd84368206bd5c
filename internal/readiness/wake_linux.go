//go:build linux

package readiness

import (
	"encoding/binary"
	"errors"

	"golang.org/x/sys/unix"
)

// createWakeFd returns one eventfd as both ends.
func createWakeFd() (int, int, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	return fd, fd, err
}

func writeWake(fd int) error {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	_, err := unix.Write(fd, buf[:])
	if errors.Is(err, unix.EAGAIN) {
		// counter saturated, a wake is already pending
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
