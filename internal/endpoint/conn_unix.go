//go:build unix

package endpoint

import (
	"errors"
	"io"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Conn is an accepted non-blocking connection.
type Conn struct {
	fd     int
	remote string
	closed atomic.Bool
}

func newConn(fd int, remote string) *Conn {
	return &Conn{fd: fd, remote: remote}
}

// Fd returns the socket descriptor.
func (c *Conn) Fd() int {
	return c.fd
}

// RemoteAddr returns the peer as host:port.
func (c *Conn) RemoteAddr() string {
	return c.remote
}

// Read performs one read. It returns io.EOF on an orderly close by the peer
// and ErrWouldBlock when no data is available.
func (c *Conn) Read(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}

	for {
		n, err := unix.Read(c.fd, p)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
				return 0, ErrWouldBlock
			}
			return 0, err
		}
		if n == 0 && len(p) > 0 {
			return 0, io.EOF
		}
		return n, nil
	}
}

// Close releases the socket. A second call returns ErrClosed and does not
// touch the descriptor, which may already belong to someone else.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return ErrClosed
	}
	return unix.Close(c.fd)
}
