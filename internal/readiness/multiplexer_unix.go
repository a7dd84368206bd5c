//go:build unix

package readiness

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// poller is the kernel readiness facility. Implementations only report read
// readiness; hangup and error conditions are reported as readable so the
// following read observes them.
type poller interface {
	add(fd int) error
	remove(fd int) error
	// wait blocks with no timeout and stores ready descriptors in ready.
	wait(ready []int) (int, error)
	close() error
}

// Multiplexer watches the listener, the active connection and a private
// wake descriptor.
//
// Wait, Watched and the reconcile step run on the loop goroutine only.
// Notify may be called from any goroutine.
type Multiplexer struct {
	p          poller
	wakeR      int
	wakeW      int
	registered map[int]Source
	ready      []int

	// mu keeps Close from releasing the wake descriptor under a concurrent Notify
	mu     sync.RWMutex
	closed atomic.Bool
}

// New creates the kernel poller and the wake descriptor.
func New() (*Multiplexer, error) {
	p, err := newPoller()
	if err != nil {
		return nil, fmt.Errorf("failed to create poller: %w", err)
	}

	r, w, err := createWakeFd()
	if err != nil {
		_ = p.close()
		return nil, fmt.Errorf("failed to create wake descriptor: %w", err)
	}

	if err := p.add(r); err != nil {
		_ = p.close()
		closeWakeFd(r, w)
		return nil, fmt.Errorf("failed to register wake descriptor: %w", err)
	}

	return &Multiplexer{
		p:          p,
		wakeR:      r,
		wakeW:      w,
		registered: make(map[int]Source, 2),
		ready:      make([]int, 8),
	}, nil
}

// Wait makes the registered set equal to watches and blocks until one of
// them is readable or the multiplexer is woken.
func (m *Multiplexer) Wait(watches []Watch) (Outcome, error) {
	if m.closed.Load() {
		return Outcome{}, ErrClosed
	}

	if err := m.reconcile(watches); err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrWait, err)
	}

	n, err := m.p.wait(m.ready)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return Outcome{Kind: Interrupted}, nil
		}
		return Outcome{}, fmt.Errorf("%w: %w", ErrWait, err)
	}

	out := Outcome{Kind: Interrupted}
	woken := false
	for _, fd := range m.ready[:n] {
		if fd == m.wakeR {
			woken = true
			continue
		}
		if src, ok := m.registered[fd]; ok {
			out.Sources = append(out.Sources, Watch{Source: src, Fd: fd})
		}
	}

	if woken {
		m.drainWake()
	}

	if len(out.Sources) > 0 {
		out.Kind = Ready
		sortWatches(out.Sources)
	}
	return out, nil
}

// Notify wakes a blocked or upcoming Wait. Several Notify calls before the
// next Wait collapse into one wake.
func (m *Multiplexer) Notify() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed.Load() {
		return ErrClosed
	}
	return writeWake(m.wakeW)
}

// Watched returns the registered sources, listener first.
func (m *Multiplexer) Watched() []Watch {
	ws := make([]Watch, 0, len(m.registered))
	for fd, src := range m.registered {
		ws = append(ws, Watch{Source: src, Fd: fd})
	}
	sortWatches(ws)
	return ws
}

// Close releases the poller and the wake descriptor. It is safe to call more
// than once.
func (m *Multiplexer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed.Swap(true) {
		return nil
	}

	err := m.p.close()
	closeWakeFd(m.wakeR, m.wakeW)
	m.registered = nil
	return err
}

// reconcile adds and removes descriptors so the registered set matches
// watches. Descriptors that were closed since they were added are already
// gone from the kernel set, so ENOENT and EBADF on removal are ignored.
func (m *Multiplexer) reconcile(watches []Watch) error {
	want := make(map[int]Source, len(watches))
	for _, w := range watches {
		if w.Fd < 0 {
			return fmt.Errorf("invalid descriptor %d for %s", w.Fd, w.Source)
		}
		want[w.Fd] = w.Source
	}

	for fd := range m.registered {
		if _, keep := want[fd]; keep {
			continue
		}
		if err := m.p.remove(fd); err != nil && !errors.Is(err, unix.ENOENT) && !errors.Is(err, unix.EBADF) {
			return fmt.Errorf("failed to unwatch %d: %w", fd, err)
		}
		delete(m.registered, fd)
	}

	for fd, src := range want {
		if _, ok := m.registered[fd]; !ok {
			if err := m.p.add(fd); err != nil && !errors.Is(err, unix.EEXIST) {
				return fmt.Errorf("failed to watch %s %d: %w", src, fd, err)
			}
		}
		m.registered[fd] = src
	}
	return nil
}

func (m *Multiplexer) drainWake() {
	var buf [64]byte
	for {
		if _, err := unix.Read(m.wakeR, buf[:]); err != nil {
			return
		}
	}
}
