package protocol

import (
	"encoding/json"
	"errors"
)

// Protocol version constants.
const (
	// Protocol is the Socket.IO protocol revision implemented by this package.
	Protocol = 5

	// EngineProtocol is the Engine.IO protocol revision carried in the EIO
	// query parameter during the opening request.
	EngineProtocol = 4
)

// Transport negotiation constants.
const (
	// DefaultPath is the HTTP request path the server mounts the engine on.
	DefaultPath = "/socket.io/"

	// DefaultNamespace is the namespace used when a connection URL carries
	// no path beyond the engine mount point.
	DefaultNamespace = "/"

	// QueryEIO is the query key announcing the engine protocol revision.
	QueryEIO = "EIO"

	// QueryTransport is the query key selecting the transport.
	QueryTransport = "transport"

	// TransportWebSocket is the only transport this client speaks.
	TransportWebSocket = "websocket"
)

// PacketType identifies the engine-level type of a packet.
type PacketType uint8

const (
	Open    PacketType = 0x00 // Server handshake with session parameters
	Close   PacketType = 0x01 // Transport shutdown request
	Ping    PacketType = 0x02 // Liveness probe
	Pong    PacketType = 0x03 // Probe answer, echoes the probe payload
	Message PacketType = 0x04 // Application payload, refined by MessageType
	Upgrade PacketType = 0x05 // Transport upgrade commit
	Noop    PacketType = 0x06 // Padding during upgrades
)

// String returns the string representation of the packet type.
func (pt PacketType) String() string {
	switch pt {
	case Open:
		return "Open"
	case Close:
		return "Close"
	case Ping:
		return "Ping"
	case Pong:
		return "Pong"
	case Message:
		return "Message"
	case Upgrade:
		return "Upgrade"
	case Noop:
		return "Noop"
	default:
		return "Unknown"
	}
}

// MessageType refines a Message packet into its application-level meaning.
// It is meaningful only when the engine type is Message.
type MessageType uint8

const (
	Connect      MessageType = 0x00 // Join a namespace
	Disconnect   MessageType = 0x01 // Leave a namespace
	Event        MessageType = 0x02 // Named event with JSON arguments
	Ack          MessageType = 0x03 // Answer to an event that carried an id
	ConnectError MessageType = 0x04 // Namespace join refused
	BinaryEvent  MessageType = 0x05 // Event with binary attachments (unsupported)
	BinaryAck    MessageType = 0x06 // Ack with binary attachments (unsupported)
)

// String returns the string representation of the message type.
func (mt MessageType) String() string {
	switch mt {
	case Connect:
		return "Connect"
	case Disconnect:
		return "Disconnect"
	case Event:
		return "Event"
	case Ack:
		return "Ack"
	case ConnectError:
		return "ConnectError"
	case BinaryEvent:
		return "BinaryEvent"
	case BinaryAck:
		return "BinaryAck"
	default:
		return "Unknown"
	}
}

// Packet errors.
var (
	ErrEmptyPacket        = errors.New("protocol: empty packet")
	ErrUnknownPacketType  = errors.New("protocol: unknown packet type")
	ErrUnknownMessageType = errors.New("protocol: unknown message type")
	ErrBinaryUnsupported  = errors.New("protocol: binary packets not supported")
	ErrAckIDOverflow      = errors.New("protocol: ack id overflows uint64")
)

// Packet is a single Socket.IO packet in its decoded form.
//
// Wire format (text, one packet per transport message):
//
//	┌──────────┬───────────┬─────────────┬─────────┬──────────────┐
//	│ Type     │ Subtype   │ Namespace   │ Ack ID  │ Payload      │
//	│ (digit)  │ (digit,   │ (/name, if  │ (digits,│ (JSON, rest  │
//	│          │ Message   │ not root)   │ if any) │ of packet)   │
//	│          │ only)     │             │         │              │
//	└──────────┴───────────┴─────────────┴─────────┴──────────────┘
//
// Examples: "2probe" (ping), "40/chat," (connect /chat),
// "42/chat,12[\"greet\",\"hi\"]" (event 12 on /chat), "43/chat,12[\"ok\"]"
// (its ack).
type Packet struct {
	Type      PacketType
	Subtype   MessageType // meaningful only when Type == Message
	Namespace string      // "/" when absent on the wire
	ID        *uint64     // ack correlation id, nil when absent
	Data      json.RawMessage
}

// IsMessage returns true if the packet carries an application payload.
func (p *Packet) IsMessage() bool {
	return p.Type == Message
}

// NeedsAck returns true if the packet expects an Ack answer.
func (p *Packet) NeedsAck() bool {
	return p.Type == Message && p.Subtype == Event && p.ID != nil
}

// NewPingPacket creates a liveness probe carrying the given payload.
// The payload may be empty; a non-empty payload must be echoed back
// verbatim by the matching pong.
func NewPingPacket(payload string) *Packet {
	return &Packet{
		Type:      Ping,
		Namespace: DefaultNamespace,
		Data:      json.RawMessage(payload),
	}
}

// NewPongPacket creates a probe answer echoing the given payload.
func NewPongPacket(payload string) *Packet {
	return &Packet{
		Type:      Pong,
		Namespace: DefaultNamespace,
		Data:      json.RawMessage(payload),
	}
}

// NewConnectPacket creates a namespace join request.
func NewConnectPacket(namespace string) *Packet {
	return &Packet{
		Type:      Message,
		Subtype:   Connect,
		Namespace: namespace,
	}
}

// NewDisconnectPacket creates a namespace leave notice.
func NewDisconnectPacket(namespace string) *Packet {
	return &Packet{
		Type:      Message,
		Subtype:   Disconnect,
		Namespace: namespace,
	}
}

// NewEventPacket creates an event packet. The data must be a JSON array
// whose first element is the event name; EncodeEventArgs builds one.
// A non-nil id requests an Ack from the peer.
func NewEventPacket(namespace string, id *uint64, data json.RawMessage) *Packet {
	return &Packet{
		Type:      Message,
		Subtype:   Event,
		Namespace: namespace,
		ID:        id,
		Data:      data,
	}
}

// NewAckPacket creates the answer to an event that carried an id.
// The data must be a JSON array of result values.
func NewAckPacket(namespace string, id uint64, data json.RawMessage) *Packet {
	return &Packet{
		Type:      Message,
		Subtype:   Ack,
		Namespace: namespace,
		ID:        &id,
		Data:      data,
	}
}
