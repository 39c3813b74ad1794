package renderer

// State is the controller's lifecycle state.
type State int

const (
	// StateIdle means no worker has been created yet.
	StateIdle State = iota
	// StateConnecting means a worker exists but no drawing surface.
	StateConnecting
	// StateAwaitingLoad means the surface exists and the worker has not yet
	// acknowledged an animation.
	StateAwaitingLoad
	// StateReady means the worker acknowledged an animation; controls and
	// resizes are forwarded immediately.
	StateReady
	// StateTerminated means the session was detached.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateAwaitingLoad:
		return "awaiting_load"
	case StateReady:
		return "ready"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
