//go:build !unix

package readiness

// Multiplexer is unavailable on this platform.
type Multiplexer struct{}

// New always fails with ErrNotSupported.
func New() (*Multiplexer, error) {
	return nil, ErrNotSupported
}

func (m *Multiplexer) Wait(watches []Watch) (Outcome, error) {
	return Outcome{}, ErrNotSupported
}

func (m *Multiplexer) Notify() error {
	return ErrNotSupported
}

func (m *Multiplexer) Watched() []Watch {
	return nil
}

func (m *Multiplexer) Close() error {
	return nil
}
