// Package loop runs the single-connection event loop: wait for readiness,
// admit or reject connections, drain the active one, and observe reload
// notifications between iterations.
package loop

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gitrgoliveira/tcp-sink/internal/config"
	"github.com/gitrgoliveira/tcp-sink/internal/endpoint"
	"github.com/gitrgoliveira/tcp-sink/internal/interfaces"
	"github.com/gitrgoliveira/tcp-sink/internal/latch"
	"github.com/gitrgoliveira/tcp-sink/internal/readiness"
)

var (
	// ErrWaitFailed is returned by Run when the readiness wait fails.
	ErrWaitFailed = errors.New("event loop wait failed")

	// ErrAlreadyRunning is returned by a second concurrent Run.
	ErrAlreadyRunning = errors.New("event loop already running")
)

// Option configures a Loop.
type Option func(*Loop)

// WithObserver registers fn to receive every Event. It runs on the loop
// goroutine and must not block.
func WithObserver(fn func(Event)) Option {
	return func(l *Loop) {
		l.observer = fn
	}
}

// WithReloadHook registers fn to run on the loop goroutine when a reload
// notification is observed, before EventReload is reported.
func WithReloadHook(fn func()) Option {
	return func(l *Loop) {
		l.onReload = fn
	}
}

// Loop owns the listener, the connection slot and the ingest buffer.
type Loop struct {
	ep    interfaces.Acceptor
	mux   interfaces.Multiplexer
	latch *latch.Latch
	log   interfaces.Logger

	slot Slot
	buf  []byte

	observer func(Event)
	onReload func()

	state    atomic.Int32
	stopping atomic.Bool
	running  atomic.Bool

	accepted int64
	rejected int64
	received int64
}

// New creates a loop serving ep. mux must have been created for the same
// latch, so Raise wakes the wait.
func New(cfg *config.Config, ep interfaces.Acceptor, mux interfaces.Multiplexer, l *latch.Latch, log interfaces.Logger, opts ...Option) (*Loop, error) {
	if ep == nil {
		return nil, fmt.Errorf("listener is required")
	}
	if mux == nil {
		return nil, fmt.Errorf("multiplexer is required")
	}
	if l == nil {
		return nil, fmt.Errorf("latch is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	size := config.DefaultBufferSize
	if cfg != nil && cfg.Ingest != nil && cfg.Ingest.BufferSize > 0 {
		size = cfg.Ingest.BufferSize
	}

	lp := &Loop{
		ep:    ep,
		mux:   mux,
		latch: l,
		log:   log,
		buf:   make([]byte, size),
	}
	for _, opt := range opts {
		opt(lp)
	}
	return lp, nil
}

// Run serves until Stop is called or ctx is done. It returns nil on a
// requested shutdown and an error wrapping ErrWaitFailed when the readiness
// wait fails. In both cases the active connection and then the listener are
// released before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	stop := context.AfterFunc(ctx, l.Stop)
	defer stop()

	l.log.Info("Event loop started",
		"listener_fd", l.ep.Fd(),
		"buffer_size", config.FormatSize(len(l.buf)))

	var runErr error
	for !l.stopping.Load() {
		if err := l.iterate(); err != nil {
			runErr = err
			break
		}
	}

	l.release()

	if runErr != nil {
		return runErr
	}
	l.log.Info("Event loop stopped",
		"accepted", l.accepted,
		"rejected", l.rejected,
		"received", config.FormatTotal(l.received))
	return nil
}

// Stop asks Run to return after the current iteration. It is safe to call
// from any goroutine.
func (l *Loop) Stop() {
	l.stopping.Store(true)
	if err := l.mux.Notify(); err != nil && !errors.Is(err, readiness.ErrClosed) {
		l.log.Debug("Failed to wake event loop", "error", err)
	}
}

// State returns Idle or Serving.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// WatchSet returns the sources the next wait will watch: the listener and,
// while serving, the active connection.
func (l *Loop) WatchSet() []readiness.Watch {
	ws := []readiness.Watch{{Source: readiness.SourceListener, Fd: l.ep.Fd()}}
	if l.slot.Occupied() {
		ws = append(ws, readiness.Watch{Source: readiness.SourceConn, Fd: l.slot.Peer().Fd()})
	}
	return ws
}

// SetLogger replaces the logger. Call only from the reload hook.
func (l *Loop) SetLogger(log interfaces.Logger) {
	if log != nil {
		l.log = log
	}
}

// SetBufferSize resizes the ingest buffer. Call only from the reload hook.
func (l *Loop) SetBufferSize(n int) {
	if n > 0 && n != len(l.buf) {
		l.buf = make([]byte, n)
	}
}

func (l *Loop) iterate() error {
	out, err := l.mux.Wait(l.WatchSet())
	if err != nil {
		l.log.Error("Readiness wait failed, stopping event loop", "error", err)
		l.emit(Event{Kind: EventWaitFailed, Err: err})
		return fmt.Errorf("%w: %w", ErrWaitFailed, err)
	}

	if out.Kind == readiness.Ready {
		if out.Has(readiness.SourceListener) {
			l.admit()
		}
		if out.Has(readiness.SourceConn) && l.slot.Occupied() && l.slot.Peer().Fd() == out.Fd(readiness.SourceConn) {
			l.ingest()
		}
	}

	if l.latch.Take() {
		l.reload()
	}
	return nil
}

func (l *Loop) admit() {
	a := Admit(l.ep, &l.slot)

	switch a.Result {
	case Accepted:
		l.accepted++
		l.state.Store(int32(StateServing))
		l.log.Info("Connection accepted",
			"peer", a.Peer,
			"session", a.Session.ShortID(),
			"fd", l.slot.Peer().Fd())
		l.emit(Event{Kind: EventAccepted, SessionID: a.Session.ID, Peer: a.Peer})

	case Rejected:
		l.rejected++
		active := l.slot.Session()
		l.log.Info("Connection rejected, another peer is active",
			"peer", a.Peer,
			"active_peer", active.Peer,
			"active_session", active.ShortID())
		if a.Err != nil {
			l.log.Warn("Failed to close rejected connection", "peer", a.Peer, "error", a.Err)
		}
		l.emit(Event{Kind: EventRejected, SessionID: a.Session.ID, Peer: a.Peer, Err: a.Err})

	case AcceptFailed:
		if errors.Is(a.Err, endpoint.ErrWouldBlock) {
			l.log.Debug("Listener readiness with no pending connection")
		} else {
			l.log.Warn("Accept failed", "error", a.Err)
		}
		l.emit(Event{Kind: EventAcceptFailed, Err: a.Err})
	}
}

func (l *Loop) ingest() {
	peer := l.slot.Peer().RemoteAddr()
	in := Ingest(&l.slot, l.buf)

	switch in.Result {
	case Data:
		l.received += int64(in.N)
		l.log.Info("Data received",
			"peer", peer,
			"bytes", in.N,
			"total", config.FormatTotal(in.Session.BytesReceived))
		l.emit(Event{Kind: EventData, SessionID: in.Session.ID, Peer: peer, N: in.N})

	case Closed:
		l.state.Store(int32(StateIdle))
		l.log.Info("Connection closed by peer",
			"peer", peer,
			"session", in.Session.ShortID(),
			"received", config.FormatTotal(in.Session.BytesReceived),
			"duration", in.Session.Duration())
		if in.Err != nil {
			l.log.Warn("Failed to release connection", "peer", peer, "error", in.Err)
		}
		l.emit(Event{Kind: EventClosed, SessionID: in.Session.ID, Peer: peer})

	case Errored:
		l.state.Store(int32(StateIdle))
		l.log.Error("Connection read failed",
			"peer", peer,
			"session", in.Session.ShortID(),
			"error", in.Err)
		l.emit(Event{Kind: EventErrored, SessionID: in.Session.ID, Peer: peer, Err: in.Err})

	case Idle:
		l.log.Debug("Connection readiness with no data", "peer", peer)
		l.emit(Event{Kind: EventIdle, Peer: peer})
	}
}

func (l *Loop) reload() {
	l.log.Info("Reload signal received", "total_signals", l.latch.Raised())
	if l.onReload != nil {
		l.onReload()
	}
	l.emit(Event{Kind: EventReload})
}

// release closes the active connection, then the listener.
func (l *Loop) release() {
	if l.slot.Occupied() {
		sess := l.slot.Session()
		sess.MarkShutdown()
		peer := sess.Peer
		if err := l.slot.release(); err != nil {
			l.log.Warn("Failed to close active connection", "peer", peer, "error", err)
		}
		l.state.Store(int32(StateIdle))
		l.log.Info("Active connection released", "peer", peer, "session", sess.ShortID())
		l.emit(Event{Kind: EventShutdown, SessionID: sess.ID, Peer: peer})
	}

	if err := l.ep.Close(); err != nil && !errors.Is(err, endpoint.ErrClosed) {
		l.log.Warn("Failed to close listener", "error", err)
	}
}

func (l *Loop) emit(e Event) {
	if l.observer != nil {
		l.observer(e)
	}
}
