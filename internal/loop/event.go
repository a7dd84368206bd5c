package loop

// EventKind identifies a loop transition.
type EventKind int

const (
	EventAccepted EventKind = iota
	EventRejected
	EventAcceptFailed
	EventData
	EventClosed
	EventErrored
	EventIdle
	EventReload
	EventShutdown
	EventWaitFailed
)

var eventNames = map[EventKind]string{
	EventAccepted:     "accepted",
	EventRejected:     "rejected",
	EventAcceptFailed: "accept_failed",
	EventData:         "data",
	EventClosed:       "closed",
	EventErrored:      "errored",
	EventIdle:         "idle",
	EventReload:       "reload",
	EventShutdown:     "shutdown",
	EventWaitFailed:   "wait_failed",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is reported to the observer for every transition.
type Event struct {
	Kind      EventKind
	SessionID string
	Peer      string
	// N is the byte count for EventData
	N   int
	Err error
}

// State is the loop's structural state.
type State int32

const (
	// StateIdle watches the listener only.
	StateIdle State = iota
	// StateServing watches the listener and the active connection.
	StateServing
)

func (s State) String() string {
	if s == StateServing {
		return "serving"
	}
	return "idle"
}
