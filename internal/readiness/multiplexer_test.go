//go:build unix

package readiness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// newPipe returns a pipe whose read end can be watched.
func newPipe(t *testing.T) (r, w int) {
	t.Helper()
	var fds [2]int
	require.NoError(t, unix.Pipe(fds[:]))
	t.Cleanup(func() {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func newMultiplexer(t *testing.T) *Multiplexer {
	t.Helper()
	m, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

type waitResult struct {
	out Outcome
	err error
}

func waitAsync(m *Multiplexer, watches []Watch) <-chan waitResult {
	ch := make(chan waitResult, 1)
	go func() {
		out, err := m.Wait(watches)
		ch <- waitResult{out, err}
	}()
	return ch
}

func TestMultiplexer_NotifyBeforeWait(t *testing.T) {
	m := newMultiplexer(t)
	r, _ := newPipe(t)

	require.NoError(t, m.Notify())

	out, err := m.Wait([]Watch{{Source: SourceListener, Fd: r}})
	require.NoError(t, err)
	assert.Equal(t, Interrupted, out.Kind)
	assert.Empty(t, out.Sources)
}

func TestMultiplexer_NotifyWhileBlocked(t *testing.T) {
	m := newMultiplexer(t)
	r, _ := newPipe(t)

	ch := waitAsync(m, []Watch{{Source: SourceListener, Fd: r}})

	select {
	case <-ch:
		t.Fatal("wait returned before anything was ready")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, m.Notify())

	select {
	case res := <-ch:
		require.NoError(t, res.err)
		assert.Equal(t, Interrupted, res.out.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("wait was not woken by Notify")
	}
}

func TestMultiplexer_NotifiesCoalesce(t *testing.T) {
	m := newMultiplexer(t)
	r, _ := newPipe(t)
	watches := []Watch{{Source: SourceListener, Fd: r}}

	for i := 0; i < 100; i++ {
		require.NoError(t, m.Notify())
	}

	out, err := m.Wait(watches)
	require.NoError(t, err)
	assert.Equal(t, Interrupted, out.Kind)

	// the wake was drained, so the next wait blocks until something new happens
	ch := waitAsync(m, watches)
	select {
	case <-ch:
		t.Fatal("drained wake fired a second time")
	case <-time.After(50 * time.Millisecond):
	}
	require.NoError(t, m.Notify())
	res := <-ch
	require.NoError(t, res.err)
	assert.Equal(t, Interrupted, res.out.Kind)
}

func TestMultiplexer_ReadySource(t *testing.T) {
	m := newMultiplexer(t)
	r, w := newPipe(t)

	_, err := unix.Write(w, []byte("x"))
	require.NoError(t, err)

	out, err := m.Wait([]Watch{{Source: SourceConn, Fd: r}})
	require.NoError(t, err)
	assert.Equal(t, Ready, out.Kind)
	assert.True(t, out.Has(SourceConn))
	assert.False(t, out.Has(SourceListener))
	assert.Equal(t, r, out.Fd(SourceConn))
	assert.Equal(t, -1, out.Fd(SourceListener))
}

func TestMultiplexer_ListenerOrderedFirst(t *testing.T) {
	m := newMultiplexer(t)
	lr, lw := newPipe(t)
	cr, cw := newPipe(t)

	_, err := unix.Write(cw, []byte("c"))
	require.NoError(t, err)
	_, err = unix.Write(lw, []byte("l"))
	require.NoError(t, err)

	out, err := m.Wait([]Watch{
		{Source: SourceConn, Fd: cr},
		{Source: SourceListener, Fd: lr},
	})
	require.NoError(t, err)
	require.Equal(t, Ready, out.Kind)
	require.Len(t, out.Sources, 2)
	assert.Equal(t, SourceListener, out.Sources[0].Source)
	assert.Equal(t, SourceConn, out.Sources[1].Source)
}

func TestMultiplexer_ReadyWithPendingWake(t *testing.T) {
	m := newMultiplexer(t)
	r, w := newPipe(t)

	_, err := unix.Write(w, []byte("x"))
	require.NoError(t, err)
	require.NoError(t, m.Notify())

	out, err := m.Wait([]Watch{{Source: SourceConn, Fd: r}})
	require.NoError(t, err)
	assert.Equal(t, Ready, out.Kind)
	assert.True(t, out.Has(SourceConn))
}

func TestMultiplexer_Reconcile(t *testing.T) {
	m := newMultiplexer(t)
	lr, _ := newPipe(t)
	cr, _ := newPipe(t)

	both := []Watch{{Source: SourceListener, Fd: lr}, {Source: SourceConn, Fd: cr}}
	require.NoError(t, m.reconcile(both))
	assert.Equal(t, both, m.Watched())

	listenerOnly := []Watch{{Source: SourceListener, Fd: lr}}
	require.NoError(t, m.reconcile(listenerOnly))
	assert.Equal(t, listenerOnly, m.Watched())

	// idempotent
	require.NoError(t, m.reconcile(listenerOnly))
	assert.Equal(t, listenerOnly, m.Watched())
}

func TestMultiplexer_ReconcileClosedDescriptor(t *testing.T) {
	m := newMultiplexer(t)
	lr, _ := newPipe(t)

	var fds [2]int
	require.NoError(t, unix.Pipe(fds[:]))
	defer unix.Close(fds[1])

	require.NoError(t, m.reconcile([]Watch{
		{Source: SourceListener, Fd: lr},
		{Source: SourceConn, Fd: fds[0]},
	}))

	// the connection is closed before the next wait drops it
	require.NoError(t, unix.Close(fds[0]))

	require.NoError(t, m.reconcile([]Watch{{Source: SourceListener, Fd: lr}}))
	assert.Equal(t, []Watch{{Source: SourceListener, Fd: lr}}, m.Watched())
}

func TestMultiplexer_InvalidDescriptor(t *testing.T) {
	m := newMultiplexer(t)

	_, err := m.Wait([]Watch{{Source: SourceConn, Fd: -1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWait)
}

func TestMultiplexer_Close(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close(), "close is idempotent")

	_, err = m.Wait(nil)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.Notify(), ErrClosed)
}

func TestOutcome_Strings(t *testing.T) {
	assert.Equal(t, "listener", SourceListener.String())
	assert.Equal(t, "conn", SourceConn.String())
	assert.Equal(t, "unknown", Source(9).String())
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "interrupted", Interrupted.String())
}
