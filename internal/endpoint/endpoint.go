// Package endpoint owns the listening socket and the accepted connection as
// raw non-blocking descriptors, so both can be handed to the readiness
// multiplexer directly.
package endpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gitrgoliveira/tcp-sink/internal/config"
	"github.com/gitrgoliveira/tcp-sink/internal/interfaces"
)

var (
	// ErrClosed is returned when a listener or connection is used after Close.
	ErrClosed = errors.New("endpoint closed")

	// ErrWouldBlock is returned when nothing is pending on a non-blocking
	// descriptor.
	ErrWouldBlock = errors.New("operation would block")

	// ErrNotSupported is returned on platforms without raw socket support.
	ErrNotSupported = errors.New("raw sockets not supported on this platform")
)

const (
	bindRetryInitial = 100 * time.Millisecond
	bindRetryMax     = time.Second
)

// ListenWithRetry calls Listen and, while the address is still held by a
// previous process, retries with exponential backoff until cfg.BindTimeout
// elapses. A zero BindTimeout means a single attempt.
func ListenWithRetry(ctx context.Context, cfg *config.ListenerConfig, log interfaces.Logger) (*Listener, error) {
	if cfg.BindTimeout.IsZero() {
		return Listen(cfg)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = bindRetryInitial
	b.MaxInterval = bindRetryMax
	b.MaxElapsedTime = cfg.BindTimeout.Duration()

	var l *Listener
	operation := func() error {
		var err error
		l, err = Listen(cfg)
		if err == nil {
			return nil
		}
		if isAddrInUse(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	notify := func(err error, next time.Duration) {
		log.Warn("Listen address busy, retrying",
			"address", cfg.ListenAddress(),
			"retry_in", next,
			"error", err)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", cfg.ListenAddress(), err)
	}
	return l, nil
}
