package loop

import (
	"github.com/gitrgoliveira/tcp-sink/internal/interfaces"
	"github.com/gitrgoliveira/tcp-sink/internal/model"
)

// Slot holds the single active connection, if any.
type Slot struct {
	peer    interfaces.Peer
	session *model.Session
}

// Occupied reports whether a connection is active.
func (s *Slot) Occupied() bool {
	return s.peer != nil
}

// Peer returns the active connection or nil.
func (s *Slot) Peer() interfaces.Peer {
	return s.peer
}

// Session returns the record of the active connection or nil.
func (s *Slot) Session() *model.Session {
	return s.session
}

func (s *Slot) fill(p interfaces.Peer, sess *model.Session) {
	s.peer = p
	s.session = sess
}

// release closes the active connection and empties the slot. The handle is
// dropped before Close is called so it cannot be released twice.
func (s *Slot) release() error {
	if s.peer == nil {
		return nil
	}
	p := s.peer
	s.peer = nil
	s.session = nil
	return p.Close()
}
