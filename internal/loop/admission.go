package loop

import (
	"github.com/gitrgoliveira/tcp-sink/internal/interfaces"
	"github.com/gitrgoliveira/tcp-sink/internal/model"
)

// AdmissionResult is what happened to a pending connection.
type AdmissionResult int

const (
	// Accepted means the connection became the active one.
	Accepted AdmissionResult = iota
	// Rejected means another connection was active and the new one was closed.
	Rejected
	// AcceptFailed means accept returned an error. It is never fatal.
	AcceptFailed
)

func (r AdmissionResult) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return "accept_failed"
	}
}

// Admission is the result of one Admit call.
type Admission struct {
	Result  AdmissionResult
	Peer    string
	Session *model.Session
	// Err is the accept error for AcceptFailed, or the close error of a
	// rejected connection.
	Err error
}

// Admit accepts exactly one pending connection. If the slot is empty the
// connection becomes active; otherwise it is closed without being read from
// or written to and the active connection is left untouched.
func Admit(ep interfaces.Acceptor, slot *Slot) Admission {
	p, err := ep.Accept()
	if err != nil {
		return Admission{Result: AcceptFailed, Err: err}
	}

	addr := p.RemoteAddr()
	if slot.Occupied() {
		return Admission{
			Result:  Rejected,
			Peer:    addr,
			Session: model.NewRejectedSession(addr),
			Err:     p.Close(),
		}
	}

	sess := model.NewSession(addr)
	slot.fill(p, sess)
	return Admission{Result: Accepted, Peer: addr, Session: sess}
}
