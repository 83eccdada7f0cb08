package client

// Lifecycle event names emitted by the client itself. Application
// events share the same registry, so these names are reserved.
const (
	// EventConnect fires when the engine handshake completes. The
	// argument is the engine session id.
	EventConnect = "connect"

	// EventOpen fires when the server confirms the namespace join. The
	// argument is the namespace.
	EventOpen = "open"

	// EventClose fires after teardown. The argument names the
	// initiator: "client", "server", or "transport".
	EventClose = "close"

	// EventError fires for recoverable failures: transport errors,
	// refused namespace connections, probe send failures. The argument
	// is the error.
	EventError = "error"

	// EventHandshake fires with the decoded *protocol.Handshake before
	// EventConnect.
	EventHandshake = "handshake"

	// EventPing fires when the server sends a ping. The client replies
	// with a pong automatically; the argument is the ping payload.
	EventPing = "ping"

	// EventPong fires for every pong from the server with its payload.
	EventPong = "pong"

	// EventProbeSuccess fires when a pong echoes the probe payload the
	// client sent. The argument is the payload.
	EventProbeSuccess = "probe_success"

	// EventProbeError fires when a pong payload does not match the
	// probe that was sent. The argument describes the mismatch.
	EventProbeError = "probe_error"
)

// lifecycleEvents seeds the registry so subscribers can look up the
// reserved names before anything was emitted.
var lifecycleEvents = []string{
	EventConnect,
	EventOpen,
	EventClose,
	EventError,
	EventHandshake,
	EventPing,
	EventPong,
	EventProbeSuccess,
	EventProbeError,
}
