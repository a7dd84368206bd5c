package loop

import (
	"errors"
	"io"

	"github.com/gitrgoliveira/tcp-sink/internal/endpoint"
	"github.com/gitrgoliveira/tcp-sink/internal/model"
)

// IngestResult is the outcome of reading from the active connection.
type IngestResult int

const (
	// Data means bytes were read and discarded.
	Data IngestResult = iota
	// Closed means the peer shut down its side; the slot is now empty.
	Closed
	// Errored means the read failed; the slot is now empty.
	Errored
	// Idle means the readiness was spurious and nothing was read.
	Idle
)

func (r IngestResult) String() string {
	switch r {
	case Data:
		return "data"
	case Closed:
		return "closed"
	case Errored:
		return "errored"
	default:
		return "idle"
	}
}

// Ingestion is the result of one Ingest call.
type Ingestion struct {
	Result  IngestResult
	N       int
	Session *model.Session
	Err     error
}

// Ingest performs one read of at most len(buf) bytes from the active
// connection. After Closed or Errored the connection has been released and
// the slot is empty.
func Ingest(slot *Slot, buf []byte) Ingestion {
	if !slot.Occupied() {
		return Ingestion{Result: Idle}
	}

	sess := slot.Session()
	n, err := slot.Peer().Read(buf)

	switch {
	case n > 0:
		sess.RecordData(n)
		return Ingestion{Result: Data, N: n, Session: sess}

	case errors.Is(err, endpoint.ErrWouldBlock):
		return Ingestion{Result: Idle, Session: sess}

	case err == nil || errors.Is(err, io.EOF):
		sess.MarkClosed()
		return Ingestion{Result: Closed, Session: sess, Err: slot.release()}

	default:
		sess.MarkErrored(err)
		_ = slot.release()
		return Ingestion{Result: Errored, Session: sess, Err: err}
	}
}
