package mailbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gitrgoliveira/tcp-sink/internal/interfaces"
	"golang.org/x/sync/errgroup"
)

// Event is the value handed from Producer to Consumer.
type Event struct {
	Value  int
	SentAt time.Time
}

// Producer offers an increasing counter on every tick. The counter only
// advances when the offer is taken, so a skipped tick resends the same value.
type Producer struct {
	box      *Mailbox[Event]
	interval time.Duration
	log      interfaces.Logger
	counter  int
}

// NewProducer creates a producer that ticks every interval.
func NewProducer(box *Mailbox[Event], interval time.Duration, log interfaces.Logger) *Producer {
	return &Producer{box: box, interval: interval, log: log}
}

// Next returns the value the next successful offer will carry.
func (p *Producer) Next() int {
	return p.counter
}

// Tick makes one offer and reports whether it was taken.
func (p *Producer) Tick() bool {
	ev := Event{Value: p.counter, SentAt: time.Now()}
	if !p.box.Offer(ev) {
		p.log.Debug("Producer skipped, previous event still pending", "value", ev.Value)
		return false
	}
	p.counter++
	p.log.Info("Producer sent event", "value", ev.Value)
	return true
}

// Run ticks until ctx is done.
func (p *Producer) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.Tick()
		}
	}
}

// Consumer drains the mailbox and reports every event.
type Consumer struct {
	box    *Mailbox[Event]
	log    interfaces.Logger
	handle func(Event)
}

// NewConsumer creates a consumer. handle may be nil.
func NewConsumer(box *Mailbox[Event], log interfaces.Logger, handle func(Event)) *Consumer {
	return &Consumer{box: box, log: log, handle: handle}
}

// Run receives until ctx is done or the mailbox is closed.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		ev, err := c.box.Receive(ctx)
		if err != nil {
			if errors.Is(err, ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("consumer receive failed: %w", err)
		}

		c.log.Info("Consumer got event",
			"value", ev.Value,
			"latency", time.Since(ev.SentAt))
		if c.handle != nil {
			c.handle(ev)
		}
	}
}

// RunMonitor runs a producer and a consumer over one mailbox until ctx is
// done.
func RunMonitor(ctx context.Context, interval time.Duration, log interfaces.Logger) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}

	box := New[Event]()
	defer box.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return NewProducer(box, interval, log).Run(gctx)
	})
	g.Go(func() error {
		return NewConsumer(box, log, nil).Run(gctx)
	})

	err := g.Wait()
	log.Info("Monitor stopped", "delivered", box.Delivered(), "dropped", box.Dropped())
	return err
}
