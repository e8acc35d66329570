// ABOUTME: Connection state enum for the single transport connection.
// ABOUTME: Transitions are owned exclusively by the Manager's state machine.

package conn

// State is the lifecycle state of the transport connection. There is one
// connection per engine, so one State per process.
type State int

const (
	// Disconnected: no transport, no pending reconnect. The initial state.
	Disconnected State = iota
	// Connecting: a dial is in flight.
	Connecting
	// Connected: the transport is open and Send is permitted.
	Connected
	// Reconnecting: the transport dropped; a backoff timer is pending.
	Reconnecting
	// Failed: reconnect attempts were exhausted. Terminal until an explicit
	// Connect.
	Failed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
