package mailbox

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gitrgoliveira/tcp-sink/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailbox_OfferDropsWhilePending(t *testing.T) {
	box := New[int]()

	assert.False(t, box.Pending())
	assert.True(t, box.Offer(1))
	assert.True(t, box.Pending())
	assert.False(t, box.Offer(2), "second offer is dropped")
	assert.Equal(t, uint64(1), box.Dropped())

	v, err := box.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v, "the pending value is kept, not overwritten")
	assert.False(t, box.Pending())

	assert.True(t, box.Offer(3))
	assert.Equal(t, uint64(1), box.Delivered())
}

func TestMailbox_ReceiveBlocksUntilOffer(t *testing.T) {
	box := New[string]()
	got := make(chan string, 1)

	go func() {
		v, err := box.Receive(context.Background())
		if err == nil {
			got <- v
		}
	}()

	select {
	case <-got:
		t.Fatal("receive returned on an empty mailbox")
	case <-time.After(30 * time.Millisecond):
	}

	require.True(t, box.Offer("event"))

	select {
	case v := <-got:
		assert.Equal(t, "event", v)
	case <-time.After(2 * time.Second):
		t.Fatal("receive did not wake up")
	}
}

func TestMailbox_ReceiveContextCancelled(t *testing.T) {
	box := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := box.Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMailbox_Close(t *testing.T) {
	box := New[int]()
	require.True(t, box.Offer(7))

	box.Close()
	box.Close()

	v, err := box.Receive(context.Background())
	require.NoError(t, err, "value offered before close is delivered")
	assert.Equal(t, 7, v)

	_, err = box.Receive(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	assert.False(t, box.Offer(8))
}

func TestMailbox_ConcurrentOffers(t *testing.T) {
	box := New[int]()

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			if box.Offer(v) {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, accepted, "only one offer fits in the slot")
	assert.Equal(t, uint64(49), box.Dropped())
}

func TestProducer_CounterAdvancesOnlyWhenTaken(t *testing.T) {
	box := New[Event]()
	p := NewProducer(box, time.Second, logger.Discard())

	assert.True(t, p.Tick())
	assert.Equal(t, 1, p.Next())

	assert.False(t, p.Tick(), "slot still holds value 0")
	assert.Equal(t, 1, p.Next())

	ev, err := box.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, ev.Value)

	assert.True(t, p.Tick())
	ev, err = box.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, ev.Value, "no value was skipped")
}

func TestConsumer_ReceivesInOrder(t *testing.T) {
	box := New[Event]()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var values []int
	c := NewConsumer(box, logger.Discard(), func(ev Event) {
		mu.Lock()
		values = append(values, ev.Value)
		mu.Unlock()
	})

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	p := NewProducer(box, time.Millisecond, logger.Discard())
	for p.Next() < 5 {
		p.Tick()
		time.Sleep(time.Millisecond)
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(values) == 5
	}, 2*time.Second, 5*time.Millisecond)

	box.Close()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, values)
}

func TestRunMonitor(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := RunMonitor(ctx, 10*time.Millisecond, logger.Discard())
	assert.NoError(t, err)
}

func TestRunMonitor_InvalidInterval(t *testing.T) {
	err := RunMonitor(context.Background(), 0, logger.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interval must be positive")
}
