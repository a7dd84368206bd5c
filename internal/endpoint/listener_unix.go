//go:build unix

package endpoint

import (
	"errors"
	"fmt"
	"net/netip"
	"sync/atomic"

	"github.com/gitrgoliveira/tcp-sink/internal/config"
	"github.com/gitrgoliveira/tcp-sink/internal/interfaces"
	"golang.org/x/sys/unix"
)

// Listener is a non-blocking IPv4 TCP listening socket.
type Listener struct {
	fd     int
	addr   netip.AddrPort
	closed atomic.Bool
}

// Listen creates, binds and starts listening on the configured address.
func Listen(cfg *config.ListenerConfig) (*Listener, error) {
	ip, err := netip.ParseAddr(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid listen address %q: %w", cfg.Address, err)
	}
	if !ip.Is4() {
		return nil, fmt.Errorf("invalid listen address %q: only IPv4 is supported", cfg.Address)
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create socket: %w", err)
	}
	unix.CloseOnExec(fd)

	fail := func(op string, err error) (*Listener, error) {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("failed to %s %s: %w", op, cfg.ListenAddress(), err)
	}

	if cfg.ReuseAddress() {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			return fail("set SO_REUSEADDR on", err)
		}
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		return fail("set non-blocking on", err)
	}

	sa := &unix.SockaddrInet4{Port: cfg.PortNumber(), Addr: ip.As4()}
	if err := unix.Bind(fd, sa); err != nil {
		return fail("bind", err)
	}
	if err := unix.Listen(fd, cfg.Backlog); err != nil {
		return fail("listen on", err)
	}

	bound, err := unix.Getsockname(fd)
	if err != nil {
		return fail("read bound address of", err)
	}

	return &Listener{fd: fd, addr: addrPort(bound)}, nil
}

// Fd returns the socket descriptor.
func (l *Listener) Fd() int {
	return l.fd
}

// Addr returns the bound address, with the kernel-assigned port when the
// configured port was 0.
func (l *Listener) Addr() netip.AddrPort {
	return l.addr
}

// Accept takes one pending connection. It returns ErrWouldBlock when the
// backlog is empty.
func (l *Listener) Accept() (interfaces.Peer, error) {
	if l.closed.Load() {
		return nil, ErrClosed
	}

	for {
		nfd, sa, err := unix.Accept(l.fd)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
				return nil, ErrWouldBlock
			}
			return nil, fmt.Errorf("accept: %w", err)
		}

		unix.CloseOnExec(nfd)
		if err := unix.SetNonblock(nfd, true); err != nil {
			_ = unix.Close(nfd)
			return nil, fmt.Errorf("failed to set non-blocking on accepted socket: %w", err)
		}
		return newConn(nfd, addrPort(sa).String()), nil
	}
}

// Close releases the socket. A second call returns ErrClosed.
func (l *Listener) Close() error {
	if l.closed.Swap(true) {
		return ErrClosed
	}
	return unix.Close(l.fd)
}

func addrPort(sa unix.Sockaddr) netip.AddrPort {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(a.Addr), uint16(a.Port)) // #nosec G115 - ports fit in 16 bits
	case *unix.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(a.Addr), uint16(a.Port)) // #nosec G115 - ports fit in 16 bits
	default:
		return netip.AddrPort{}
	}
}

func isAddrInUse(err error) bool {
	return errors.Is(err, unix.EADDRINUSE)
}
