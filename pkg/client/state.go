package client

// State is the connection lifecycle state of a Client.
//
// Transitions:
//
//	Closed  --Open()-->  Opening  --handshake-->  Open
//	Opening --Close()--> Closing  --teardown-->   Closed
//	Open    --Close()--> Closing  --teardown-->   Closed
//
// A transport failure collapses any non-closed state directly to Closed.
type State uint8

const (
	// StateClosed means no connection exists. Open is the only legal call.
	StateClosed State = iota

	// StateOpening means the transport is dialing or the engine handshake
	// is still in flight.
	StateOpening

	// StateOpen means the engine handshake completed and packets flow.
	StateOpen

	// StateClosing means Close was called and teardown is in progress.
	StateClosing
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "Closed"
	case StateOpening:
		return "Opening"
	case StateOpen:
		return "Open"
	case StateClosing:
		return "Closing"
	default:
		return "Unknown"
	}
}
