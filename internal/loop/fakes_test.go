package loop

import (
	"sync"

	"github.com/gitrgoliveira/tcp-sink/internal/endpoint"
	"github.com/gitrgoliveira/tcp-sink/internal/interfaces"
	"github.com/gitrgoliveira/tcp-sink/internal/readiness"
	"github.com/stretchr/testify/mock"
)

// closeLog records the order in which fakes are closed.
type closeLog struct {
	mu    sync.Mutex
	order []string
}

func (c *closeLog) add(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = append(c.order, name)
}

func (c *closeLog) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.order...)
}

type readResult struct {
	n   int
	err error
}

type fakePeer struct {
	fd     int
	addr   string
	reads  []readResult
	nReads int
	closes int
	log    *closeLog
}

func (p *fakePeer) Fd() int            { return p.fd }
func (p *fakePeer) RemoteAddr() string { return p.addr }

func (p *fakePeer) Read(b []byte) (int, error) {
	p.nReads++
	if len(p.reads) == 0 {
		return 0, endpoint.ErrWouldBlock
	}
	r := p.reads[0]
	p.reads = p.reads[1:]
	return r.n, r.err
}

func (p *fakePeer) Close() error {
	p.closes++
	if p.log != nil {
		p.log.add("conn:" + p.addr)
	}
	if p.closes > 1 {
		return endpoint.ErrClosed
	}
	return nil
}

type acceptResult struct {
	peer *fakePeer
	err  error
}

type fakeAcceptor struct {
	fd      int
	pending []acceptResult
	closes  int
	log     *closeLog
}

func (a *fakeAcceptor) Fd() int { return a.fd }

func (a *fakeAcceptor) Accept() (interfaces.Peer, error) {
	if len(a.pending) == 0 {
		return nil, endpoint.ErrWouldBlock
	}
	r := a.pending[0]
	a.pending = a.pending[1:]
	if r.err != nil {
		return nil, r.err
	}
	return r.peer, nil
}

func (a *fakeAcceptor) Close() error {
	a.closes++
	if a.log != nil {
		a.log.add("listener")
	}
	return nil
}

type MockMultiplexer struct {
	mock.Mock
}

func (m *MockMultiplexer) Wait(watches []readiness.Watch) (readiness.Outcome, error) {
	args := m.Called(watches)
	return args.Get(0).(readiness.Outcome), args.Error(1)
}

func (m *MockMultiplexer) Notify() error {
	return nil
}

func (m *MockMultiplexer) Close() error {
	return nil
}
