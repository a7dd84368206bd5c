// Package mailbox is a single-slot hand-off between one producer and one
// consumer.
//
// An offer made while a value is still pending is dropped, not queued. The
// producer never blocks and the consumer always sees the oldest undelivered
// value.
package mailbox

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Receive once the mailbox is closed and empty.
var ErrClosed = errors.New("mailbox closed")

// Mailbox holds at most one value of type T.
type Mailbox[T any] struct {
	slot      chan T
	done      chan struct{}
	closeOnce sync.Once

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// New returns an empty mailbox.
func New[T any]() *Mailbox[T] {
	return &Mailbox[T]{
		slot: make(chan T, 1),
		done: make(chan struct{}),
	}
}

// Offer stores v if the slot is empty and reports whether it did. It never
// blocks. Offers after Close are dropped.
func (m *Mailbox[T]) Offer(v T) bool {
	select {
	case <-m.done:
		m.dropped.Add(1)
		return false
	default:
	}

	select {
	case m.slot <- v:
		return true
	default:
		m.dropped.Add(1)
		return false
	}
}

// Receive blocks until a value is available, the mailbox is closed, or ctx
// is done. A value offered before Close is still delivered.
func (m *Mailbox[T]) Receive(ctx context.Context) (T, error) {
	var zero T
	select {
	case v := <-m.slot:
		m.delivered.Add(1)
		return v, nil
	case <-m.done:
		select {
		case v := <-m.slot:
			m.delivered.Add(1)
			return v, nil
		default:
			return zero, ErrClosed
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Pending reports whether a value is waiting to be received.
func (m *Mailbox[T]) Pending() bool {
	return len(m.slot) > 0
}

// Close wakes any blocked Receive. It is safe to call more than once.
func (m *Mailbox[T]) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

// Delivered returns how many values were received.
func (m *Mailbox[T]) Delivered() uint64 {
	return m.delivered.Load()
}

// Dropped returns how many offers were refused.
func (m *Mailbox[T]) Dropped() uint64 {
	return m.dropped.Load()
}
