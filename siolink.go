// Package siolink is a Socket.IO client for Go.
//
// This is the recommended import for most applications:
//
//	import "github.com/siolink-dev/siolink"
//
// Usage:
//
//	c := siolink.New(nil)
//
//	c.On(siolink.EventOpen, func(args ...any) {
//		c.Emit("hello", "world")
//	})
//	c.On("news", func(args ...any) {
//		// args are json.RawMessage values.
//	})
//
//	// The URL's path selects the namespace to join.
//	if err := c.Open(ctx, "https://example.com/chat"); err != nil {
//		log.Fatal(err)
//	}
//	defer c.Close()
//
// The heavy lifting lives in pkg/client (connection lifecycle), with
// the wire format in pkg/protocol and the callback registry in
// pkg/emitter.
package siolink

import (
	"context"

	"github.com/siolink-dev/siolink/pkg/client"
	"github.com/siolink-dev/siolink/pkg/protocol"
)

// =============================================================================
// Core types (pkg/client exposed at the module root)
// =============================================================================

// Client is the connection handle: Open, Close, Emit, EmitWithAck, and
// the On/Once/Off event registry.
type Client = client.Client

// Config configures a Client. Build one with DefaultConfig and the
// WithX chain.
type Config = client.Config

// Ack is the handle for one in-flight acknowledgement, returned by
// EmitWithAck.
type Ack = client.Ack

// AckResponder answers an inbound event that requested an
// acknowledgement. It arrives as the final handler argument.
type AckResponder = client.AckResponder

// Transport moves encoded packets between client and server. The
// WebSocket transport is the default; supply your own via
// Config.Transport.
type Transport = client.Transport

// Handshake holds the engine session parameters the server granted,
// delivered with EventHandshake and through Client.Handshake.
type Handshake = protocol.Handshake

// Packet is one decoded protocol frame. Needed only when implementing
// a custom Transport or working with raw frames.
type Packet = protocol.Packet

// ConnectRefusal carries the server's reason for rejecting a namespace
// join, delivered with EventError.
type ConnectRefusal = protocol.ConnectRefusal

// State is the connection lifecycle state.
type State = client.State

// Lifecycle states.
const (
	StateClosed  = client.StateClosed
	StateOpening = client.StateOpening
	StateOpen    = client.StateOpen
	StateClosing = client.StateClosing
)

// =============================================================================
// Lifecycle events (re-export from pkg/client)
// =============================================================================

const (
	// EventConnect fires when the engine handshake completes.
	EventConnect = client.EventConnect

	// EventOpen fires when the server confirms the namespace join,
	// with the namespace as argument.
	EventOpen = client.EventOpen

	// EventClose fires after teardown with the initiator name.
	EventClose = client.EventClose

	// EventError fires for recoverable failures.
	EventError = client.EventError

	// EventHandshake fires with the decoded handshake parameters.
	EventHandshake = client.EventHandshake

	// EventPing fires when the server pings; the reply is automatic.
	EventPing = client.EventPing

	// EventPong fires for every pong with its payload.
	EventPong = client.EventPong

	// EventProbeSuccess fires when a keepalive probe echo matches.
	EventProbeSuccess = client.EventProbeSuccess

	// EventProbeError fires when a keepalive probe echo does not match.
	EventProbeError = client.EventProbeError
)

// =============================================================================
// Errors (re-export from pkg/client)
// =============================================================================

var (
	// ErrInvalidState is returned for operations that are not legal in
	// the current lifecycle state.
	ErrInvalidState = client.ErrInvalidState

	// ErrNotOpen is returned by Emit before the handshake completes.
	ErrNotOpen = client.ErrNotOpen

	// ErrClosed is reported to acknowledgements abandoned by teardown.
	ErrClosed = client.ErrClosed
)

// =============================================================================
// Constructors
// =============================================================================

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return client.DefaultConfig()
}

// New creates a client. A nil config uses DefaultConfig.
func New(cfg *Config) *Client {
	return client.New(cfg)
}

// Dial creates a client and opens it in one call. The returned client
// is still completing its handshake; use New, register handlers, then
// Open when the connect events themselves must be observed.
func Dial(ctx context.Context, rawURL string, cfg *Config) (*Client, error) {
	c := client.New(cfg)
	if err := c.Open(ctx, rawURL); err != nil {
		return nil, err
	}
	return c, nil
}
