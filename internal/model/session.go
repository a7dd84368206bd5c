package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents where a peer session is in its lifecycle
type SessionStatus string

const (
	StatusActive   SessionStatus = "active"
	StatusClosed   SessionStatus = "closed"
	StatusErrored  SessionStatus = "errored"
	StatusRejected SessionStatus = "rejected"
	StatusShutdown SessionStatus = "shutdown"
)

// Session records one accepted peer, from admission to release.
type Session struct {
	// ID is a unique identifier used to correlate log lines
	ID string `json:"id"`

	// Peer is the remote address as host:port
	Peer string `json:"peer"`

	// Status is the current status of this session
	Status SessionStatus `json:"status"`

	// BytesReceived counts bytes read and discarded
	BytesReceived int64 `json:"bytes_received"`

	// Reads counts reads that returned data
	Reads int `json:"reads"`

	// AcceptedAt is when the peer was admitted or rejected
	AcceptedAt time.Time `json:"accepted_at"`

	// LastRead is when data was last received
	LastRead time.Time `json:"last_read,omitempty"`

	// EndedAt is when the session reached a terminal status
	EndedAt time.Time `json:"ended_at,omitempty"`

	// Error is the read error that ended the session, if any
	Error string `json:"error,omitempty"`
}

// NewSession opens an active session for peer.
func NewSession(peer string) *Session {
	return &Session{
		ID:         uuid.New().String(),
		Peer:       peer,
		Status:     StatusActive,
		AcceptedAt: time.Now(),
	}
}

// NewRejectedSession records a peer that was turned away while another was active.
func NewRejectedSession(peer string) *Session {
	s := NewSession(peer)
	s.Status = StatusRejected
	s.EndedAt = s.AcceptedAt
	return s
}

// Active reports whether the session still owns the connection slot.
func (s *Session) Active() bool {
	return s.Status == StatusActive
}

// RecordData accounts for n bytes received.
func (s *Session) RecordData(n int) {
	s.BytesReceived += int64(n)
	s.Reads++
	s.LastRead = time.Now()
}

// MarkClosed marks an orderly close by the peer
func (s *Session) MarkClosed() {
	s.end(StatusClosed)
}

// MarkErrored marks a session ended by a read error
func (s *Session) MarkErrored(err error) {
	if !s.Active() {
		return
	}
	if err != nil {
		s.Error = err.Error()
	}
	s.end(StatusErrored)
}

// MarkShutdown marks a session released because the server stopped
func (s *Session) MarkShutdown() {
	s.end(StatusShutdown)
}

// Duration returns how long the session lasted, or has lasted so far.
func (s *Session) Duration() time.Duration {
	if s.EndedAt.IsZero() {
		return time.Since(s.AcceptedAt)
	}
	return s.EndedAt.Sub(s.AcceptedAt)
}

// ShortID returns the first block of the ID for compact log lines.
func (s *Session) ShortID() string {
	if len(s.ID) < 8 {
		return s.ID
	}
	return s.ID[:8]
}

func (s *Session) end(status SessionStatus) {
	if !s.Active() {
		return
	}
	s.Status = status
	s.EndedAt = time.Now()
}
