package protocol

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
)

// Encode encodes the packet to its wire text.
//
// Encoding is the exact inverse of DecodePacket for every packet this
// package can produce: the type digit, then for Message packets the
// subtype digit, the namespace (with trailing comma) when not root, the
// ack id when present, and finally the raw payload.
func (p *Packet) Encode() []byte {
	buf := make([]byte, 0, 8+len(p.Namespace)+len(p.Data))
	buf = append(buf, byte('0'+p.Type))

	if p.Type != Message {
		return append(buf, p.Data...)
	}

	buf = append(buf, byte('0'+p.Subtype))
	if p.Namespace != "" && p.Namespace != DefaultNamespace {
		buf = append(buf, p.Namespace...)
		buf = append(buf, ',')
	}
	if p.ID != nil {
		buf = strconv.AppendUint(buf, *p.ID, 10)
	}
	return append(buf, p.Data...)
}

// DecodePacket decodes a single packet from its wire text.
// The payload is copied, so the input may be reused by the caller.
func DecodePacket(data []byte) (*Packet, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPacket
	}

	c := data[0]
	if c < '0' || c > '6' {
		return nil, ErrUnknownPacketType
	}

	p := &Packet{
		Type:      PacketType(c - '0'),
		Namespace: DefaultNamespace,
	}
	rest := data[1:]

	// Engine-level packets carry their payload directly after the type
	// digit: the handshake JSON for Open, the probe text for Ping/Pong.
	if p.Type != Message {
		p.Data = clonePayload(rest)
		return p, nil
	}

	if len(rest) == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	c = rest[0]
	if c < '0' || c > '6' {
		return nil, ErrUnknownMessageType
	}
	p.Subtype = MessageType(c - '0')
	if p.Subtype == BinaryEvent || p.Subtype == BinaryAck {
		return nil, ErrBinaryUnsupported
	}
	rest = rest[1:]

	// Namespace, present only when the packet addresses a non-root one.
	// It runs to the separating comma, or to the end of the packet when
	// nothing follows it.
	if len(rest) > 0 && rest[0] == '/' {
		if i := bytes.IndexByte(rest, ','); i >= 0 {
			p.Namespace = string(rest[:i])
			rest = rest[i+1:]
		} else {
			p.Namespace = string(rest)
			rest = nil
		}
	}

	// Ack id, a run of decimal digits before the JSON payload. The
	// payload itself always opens with '[' or '{', so the run is
	// unambiguous.
	if n := digitRun(rest); n > 0 {
		id, err := strconv.ParseUint(string(rest[:n]), 10, 64)
		if err != nil {
			return nil, ErrAckIDOverflow
		}
		p.ID = &id
		rest = rest[n:]
	}

	p.Data = clonePayload(rest)
	return p, nil
}

// digitRun returns the length of the leading run of decimal digits.
func digitRun(data []byte) int {
	n := 0
	for n < len(data) && data[n] >= '0' && data[n] <= '9' {
		n++
	}
	return n
}

func clonePayload(data []byte) json.RawMessage {
	if len(data) == 0 {
		return nil
	}
	out := make(json.RawMessage, len(data))
	copy(out, data)
	return out
}
