// Package readiness blocks until a watched socket is readable or the loop is
// woken from another goroutine.
//
// The wake descriptor is registered for the whole life of a Multiplexer, so a
// Notify issued at any moment, including just before Wait is entered, makes
// the next Wait return. Nothing can be lost between checking for a pending
// reload and starting to wait.
package readiness

import (
	"errors"
	"sort"
)

var (
	// ErrWait wraps any failure of the kernel wait other than an interruption.
	ErrWait = errors.New("readiness wait failed")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("multiplexer closed")

	// ErrNotSupported is returned on platforms without a readiness poller.
	ErrNotSupported = errors.New("readiness multiplexer not supported on this platform")
)

// Source identifies what a watched descriptor is.
type Source int

const (
	// SourceListener is the listening endpoint.
	SourceListener Source = iota
	// SourceConn is the active connection.
	SourceConn
)

func (s Source) String() string {
	switch s {
	case SourceListener:
		return "listener"
	case SourceConn:
		return "conn"
	default:
		return "unknown"
	}
}

// Watch pairs a descriptor with the role it plays.
type Watch struct {
	Source Source
	Fd     int
}

// Kind is the class of a Wait result.
type Kind int

const (
	// Ready means at least one watched source is readable.
	Ready Kind = iota
	// Interrupted means the wait ended without a ready source: either a
	// Notify or EINTR.
	Interrupted
)

func (k Kind) String() string {
	if k == Ready {
		return "ready"
	}
	return "interrupted"
}

// Outcome is the result of one Wait.
type Outcome struct {
	Kind    Kind
	Sources []Watch
}

// Has reports whether src is among the ready sources.
func (o Outcome) Has(src Source) bool {
	for _, w := range o.Sources {
		if w.Source == src {
			return true
		}
	}
	return false
}

// Fd returns the descriptor reported for src, or -1.
func (o Outcome) Fd(src Source) int {
	for _, w := range o.Sources {
		if w.Source == src {
			return w.Fd
		}
	}
	return -1
}

// sortWatches orders the listener before the connection.
func sortWatches(ws []Watch) {
	sort.SliceStable(ws, func(i, j int) bool { return ws[i].Source < ws[j].Source })
}
