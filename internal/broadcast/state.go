//
//
package broadcast

// State is the lifecycle state of a subscriber.
type State int

const (
	StateUnknown State = iota
	StateConnecting
	StateConnected
	StateDisconnectedClean
	StateDisconnectedError
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateDisconnectedClean:
		return "DISCONNECTED_CLEAN"
	case StateDisconnectedError:
		return "DISCONNECTED_ERROR"
	default:
		return "UNKNOWN"
	}
}

// Disconnected reports whether s is terminal.
func (s State) Disconnected() bool {
	return s == StateDisconnectedClean || s == StateDisconnectedError
}
