//go:build !unix

package endpoint

import (
	"net/netip"

	"github.com/gitrgoliveira/tcp-sink/internal/config"
	"github.com/gitrgoliveira/tcp-sink/internal/interfaces"
)

// Listener is unavailable on this platform.
type Listener struct{}

// Listen always fails with ErrNotSupported.
func Listen(cfg *config.ListenerConfig) (*Listener, error) {
	return nil, ErrNotSupported
}

func (l *Listener) Fd() int                          { return -1 }
func (l *Listener) Addr() netip.AddrPort             { return netip.AddrPort{} }
func (l *Listener) Accept() (interfaces.Peer, error) { return nil, ErrNotSupported }
func (l *Listener) Close() error                     { return nil }

func isAddrInUse(err error) bool { return false }
