package stream

// State is the lifecycle state of a Session.
type State int

const (
	// StateActive means the session is still consuming its stream.
	StateActive State = iota

	// StateDone means the stream ended with the done sentinel.
	StateDone

	// StateFailed means the stream ended in any other way.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
