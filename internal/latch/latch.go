// Package latch records that a reload notification arrived since the event
// loop last looked.
//
// Raise is the only operation allowed from the asynchronous side (the signal
// forwarding goroutine, the config watcher). It is an atomic store followed by
// a wake write, so it never allocates or blocks. Take is called only by the
// loop. The flag is edge-triggered: any number of Raise calls between two Take
// calls are observed exactly once.
package latch

import "sync/atomic"

// Notifier wakes a blocked readiness wait.
type Notifier interface {
	Notify() error
}

// Latch is a single edge-triggered flag.
type Latch struct {
	set      atomic.Bool
	raised   atomic.Uint64
	notifier Notifier
}

// New returns a cleared latch that wakes n on every Raise. n may be nil.
func New(n Notifier) *Latch {
	return &Latch{notifier: n}
}

// Raise sets the latch and wakes the loop.
//
// The flag is stored before the wake is written, so a loop woken by this
// Raise always finds the flag set. A failed wake is ignored: the flag stays
// set and is seen the next time the loop wakes for any reason.
func (l *Latch) Raise() {
	l.set.Store(true)
	l.raised.Add(1)
	if l.notifier != nil {
		_ = l.notifier.Notify()
	}
}

// Take reports whether the latch was set and clears it.
func (l *Latch) Take() bool {
	return l.set.Swap(false)
}

// Pending reports whether the latch is set without clearing it.
func (l *Latch) Pending() bool {
	return l.set.Load()
}

// Raised returns the number of Raise calls so far.
func (l *Latch) Raised() uint64 {
	return l.raised.Load()
}
