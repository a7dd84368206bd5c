// Package interfaces holds the narrow contracts between the event loop and
// the pieces it drives, so each side can be replaced in tests.
package interfaces

import (
	"github.com/gitrgoliveira/tcp-sink/internal/config"
	"github.com/gitrgoliveira/tcp-sink/internal/logger"
	"github.com/gitrgoliveira/tcp-sink/internal/readiness"
)

// ConfigManager defines the interface for managing configuration.
type ConfigManager interface {
	Get() *config.Config
	Reload() error
	OnReload(func(old, updated *config.Config))
}

// Logger defines the interface for logging.
type Logger = logger.Logger

// Peer is an accepted byte-stream connection.
type Peer interface {
	Fd() int
	Read(p []byte) (int, error)
	RemoteAddr() string
	Close() error
}

// Acceptor is the listening endpoint.
type Acceptor interface {
	Fd() int
	Accept() (Peer, error)
	Close() error
}

// Multiplexer waits for readiness on a set of sources and can be woken from
// another goroutine.
type Multiplexer interface {
	Wait(watches []readiness.Watch) (readiness.Outcome, error)
	Notify() error
	Close() error
}
