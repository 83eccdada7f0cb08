package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Event payload errors.
var (
	ErrEventNoName = errors.New("protocol: event payload missing name")
)

// EncodeEventArgs builds the JSON array payload of an Event packet: the
// event name followed by its arguments.
func EncodeEventArgs(name string, args ...any) (json.RawMessage, error) {
	payload := make([]any, 0, len(args)+1)
	payload = append(payload, name)
	payload = append(payload, args...)

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode event %q: %w", name, err)
	}
	return data, nil
}

// DecodeEventArgs splits the payload of an Event packet into the event
// name and its raw arguments. The arguments stay unparsed so the caller
// decides their Go shapes.
func DecodeEventArgs(data []byte) (string, []json.RawMessage, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return "", nil, fmt.Errorf("protocol: decode event: %w", err)
	}
	if len(elems) == 0 {
		return "", nil, ErrEventNoName
	}

	var name string
	if err := json.Unmarshal(elems[0], &name); err != nil {
		return "", nil, fmt.Errorf("protocol: decode event name: %w", err)
	}
	return name, elems[1:], nil
}

// EncodeAckArgs builds the JSON array payload of an Ack packet from the
// result values of the acknowledged event.
func EncodeAckArgs(args ...any) (json.RawMessage, error) {
	if args == nil {
		args = []any{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode ack: %w", err)
	}
	return data, nil
}

// DecodeAckArgs decodes the payload of an Ack packet into its raw result
// values. An empty payload is a valid ack with no values.
func DecodeAckArgs(data []byte) ([]json.RawMessage, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, fmt.Errorf("protocol: decode ack: %w", err)
	}
	return elems, nil
}
