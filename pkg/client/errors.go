package client

import (
	"errors"
	"fmt"
)

// Sentinel errors for common client and transport error conditions.
var (
	// ErrInvalidState is returned when an operation is not legal in the
	// client's current lifecycle state, such as closing a closed client.
	ErrInvalidState = errors.New("client: invalid state for operation")

	// ErrNotOpen is returned when a packet is emitted before the engine
	// handshake has completed.
	ErrNotOpen = errors.New("client: connection not open")

	// ErrClosed is reported to pending acknowledgements when the
	// connection shuts down before the server reply arrives.
	ErrClosed = errors.New("client: connection closed")

	// ErrTransportClosed is returned when sending on a stopped transport.
	ErrTransportClosed = errors.New("client: transport closed")

	// ErrTransportStarted is returned when starting a transport that is
	// already connected.
	ErrTransportStarted = errors.New("client: transport already started")

	// ErrBadScheme is returned when the endpoint URL scheme is not
	// http, https, ws, or wss.
	ErrBadScheme = errors.New("client: unsupported URL scheme")

	// ErrNoTransport is returned when a send is attempted with no
	// transport attached.
	ErrNoTransport = errors.New("client: no transport")
)

// ClientError wraps an error with connection context for debugging.
type ClientError struct {
	SID string // Engine session ID, empty before the handshake
	Op  string // Operation that failed
	Err error  // Underlying error
}

// Error returns the error message with connection context.
func (e *ClientError) Error() string {
	if e.SID == "" {
		return fmt.Sprintf("client: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("client: session %s: %s: %v", e.SID, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ClientError) Unwrap() error {
	return e.Err
}

// NewClientError creates a new ClientError.
func NewClientError(sid, op string, err error) *ClientError {
	return &ClientError{SID: sid, Op: op, Err: err}
}
