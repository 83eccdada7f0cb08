package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Engine session defaults, applied when the server omits a field.
const (
	DefaultPingInterval = 25 * time.Second
	DefaultPingTimeout  = 20 * time.Second
	DefaultMaxPayload   = 1000000
)

// Handshake errors.
var (
	ErrHandshakeNoSID    = errors.New("protocol: handshake missing sid")
	ErrHandshakeInterval = errors.New("protocol: handshake ping interval must be positive")
)

// Millis is a duration carried on the wire as integer milliseconds.
type Millis time.Duration

// Duration converts to a time.Duration.
func (m Millis) Duration() time.Duration {
	return time.Duration(m)
}

// MarshalJSON encodes the duration as integer milliseconds.
func (m Millis) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(m).Milliseconds())
}

// UnmarshalJSON decodes integer milliseconds into a duration.
func (m *Millis) UnmarshalJSON(data []byte) error {
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return err
	}
	*m = Millis(time.Duration(ms) * time.Millisecond)
	return nil
}

// Handshake is the session description the server sends in the payload of
// the Open packet, the first packet of every connection.
//
//	{"sid":"FyXq...","upgrades":[],"pingInterval":25000,
//	 "pingTimeout":20000,"maxPayload":1000000}
//
// PingInterval drives the client's probe schedule; PingTimeout bounds how
// long either side waits for the answering pong before declaring the
// connection dead.
type Handshake struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval Millis   `json:"pingInterval"`
	PingTimeout  Millis   `json:"pingTimeout"`
	MaxPayload   int64    `json:"maxPayload"`
}

// EncodeHandshake encodes a Handshake to its JSON wire form.
func EncodeHandshake(h *Handshake) ([]byte, error) {
	return json.Marshal(h)
}

// DecodeHandshake decodes and validates the payload of an Open packet.
// A missing sid or a non-positive ping interval is an error; a missing
// ping timeout or max payload falls back to the engine defaults.
func DecodeHandshake(data []byte) (*Handshake, error) {
	h := &Handshake{}
	if err := json.Unmarshal(data, h); err != nil {
		return nil, fmt.Errorf("protocol: decode handshake: %w", err)
	}

	if h.SID == "" {
		return nil, ErrHandshakeNoSID
	}
	if h.PingInterval <= 0 {
		return nil, ErrHandshakeInterval
	}
	if h.PingTimeout <= 0 {
		h.PingTimeout = Millis(DefaultPingTimeout)
	}
	if h.MaxPayload <= 0 {
		h.MaxPayload = DefaultMaxPayload
	}

	return h, nil
}

// ConnectReply is the payload of the Connect packet the server sends back
// once a namespace join is accepted. The sid here names the namespace
// session and differs from the engine sid in the handshake.
type ConnectReply struct {
	SID string `json:"sid"`
}

// DecodeConnectReply decodes the payload of an inbound Connect packet.
// Older servers sent no payload at all, so an empty one is accepted.
func DecodeConnectReply(data []byte) (*ConnectReply, error) {
	cr := &ConnectReply{}
	if len(data) == 0 {
		return cr, nil
	}
	if err := json.Unmarshal(data, cr); err != nil {
		return nil, fmt.Errorf("protocol: decode connect reply: %w", err)
	}
	return cr, nil
}
