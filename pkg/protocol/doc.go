// Package protocol implements the Socket.IO text wire protocol.
//
// The protocol layers an application message grammar (protocol revision 5)
// over the Engine.IO transport grammar (revision 4). Every transport
// message carries exactly one packet, encoded as text.
//
// # Wire Format
//
// A packet is a type digit followed by type-specific fields:
//
//	┌──────────┬───────────┬─────────────┬─────────┬──────────────┐
//	│ Type     │ Subtype   │ Namespace   │ Ack ID  │ Payload      │
//	│ (digit)  │ (digit,   │ (/name, if  │ (digits,│ (JSON, rest  │
//	│          │ Message   │ not root)   │ if any) │ of packet)   │
//	│          │ only)     │             │         │              │
//	└──────────┴───────────┴─────────────┴─────────┴──────────────┘
//
// # Packet Types
//
// Engine level:
//
//   - Open (0): server handshake carrying session parameters
//   - Close (1): transport shutdown request
//   - Ping (2) / Pong (3): liveness probes, pong echoes the ping payload
//   - Message (4): application payload, refined by a subtype digit
//   - Upgrade (5) / Noop (6): transport upgrade bookkeeping
//
// Message subtypes:
//
//   - Connect (0) / Disconnect (1): namespace membership
//   - Event (2): named event with a JSON argument array
//   - Ack (3): answer to an event that carried an id
//   - ConnectError (4): namespace join refused
//   - BinaryEvent (5) / BinaryAck (6): rejected, binary is unsupported
//
// # Connection Sequence
//
//	Client                          Server
//	  │<──── 0{"sid",...} ──────────│   engine handshake
//	  │───── 40/chat, ─────────────>│   join namespace (non-root only)
//	  │<──── 40/chat,{"sid":...} ───│   join accepted
//	  │───── 2probe ───────────────>│   liveness probe
//	  │<──── 3probe ────────────────│   echo answer
//	  │───── 42/chat,7["sum",1,2] ─>│   event awaiting ack 7
//	  │<──── 43/chat,7[3] ──────────│   its ack
//
// # Usage Example
//
//	// Encode an event awaiting an ack
//	data, err := EncodeEventArgs("sum", 1, 2)
//	if err != nil {
//	    // Handle error
//	}
//	id := uint64(7)
//	wire := NewEventPacket("/chat", &id, data).Encode()
//
//	// Decode an inbound packet
//	p, err := DecodePacket(wire)
//	if err != nil {
//	    // Handle error
//	}
//	name, args, err := DecodeEventArgs(p.Data)
//
// # File Structure
//
// The package is organized as follows:
//
//   - packet.go: Packet types and constructors
//   - codec.go: Wire text encoding/decoding
//   - handshake.go: Open handshake and connect replies
//   - event.go: Event and ack payload helpers
//   - error.go: Connect refusal payload
package protocol
