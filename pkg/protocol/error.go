package protocol

import (
	"encoding/json"
	"fmt"
)

// ConnectRefusal is the payload of a ConnectError packet, sent when the
// server rejects a namespace join (middleware veto, bad auth, unknown
// namespace).
//
//	{"message":"Not authorized","data":{"code":3}}
type ConnectRefusal struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface.
func (cr *ConnectRefusal) Error() string {
	if cr.Message == "" {
		return "protocol: connection refused"
	}
	return "protocol: connection refused: " + cr.Message
}

// EncodeConnectRefusal encodes a ConnectRefusal to its JSON wire form.
func EncodeConnectRefusal(cr *ConnectRefusal) ([]byte, error) {
	return json.Marshal(cr)
}

// DecodeConnectRefusal decodes the payload of a ConnectError packet.
// Servers have shipped both the object form and a bare string reason, so
// both are accepted.
func DecodeConnectRefusal(data []byte) (*ConnectRefusal, error) {
	if len(data) == 0 {
		return &ConnectRefusal{}, nil
	}

	if data[0] == '"' {
		var msg string
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("protocol: decode connect refusal: %w", err)
		}
		return &ConnectRefusal{Message: msg}, nil
	}

	cr := &ConnectRefusal{}
	if err := json.Unmarshal(data, cr); err != nil {
		return nil, fmt.Errorf("protocol: decode connect refusal: %w", err)
	}
	return cr, nil
}
