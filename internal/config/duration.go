package config

import (
	"encoding"
	"fmt"
	"time"
)

// Duration wraps time.Duration so HCL string attributes like "5s" decode directly.
type Duration time.Duration

var (
	_ encoding.TextUnmarshaler = (*Duration)(nil)
	_ encoding.TextMarshaler   = Duration(0)
)

// UnmarshalText parses strings like "250ms", "5s", "1m".
// Zero is accepted and means "disabled"; negative values are rejected.
func (d *Duration) UnmarshalText(text []byte) error {
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration format: %w", err)
	}
	if dur < 0 {
		return fmt.Errorf("duration must not be negative, got: %v", dur)
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// IsZero reports whether the duration is unset or explicitly zero.
func (d Duration) IsZero() bool {
	return d == 0
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
