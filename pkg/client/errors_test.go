package client

import (
	"errors"
	"testing"
)

func TestClientError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  *ClientError
		want string
	}{
		{
			name: "with_sid",
			err:  NewClientError("abc123", "emit", ErrNotOpen),
			want: "client: session abc123: emit: client: connection not open",
		},
		{
			name: "without_sid",
			err:  NewClientError("", "open", ErrInvalidState),
			want: "client: open: client: invalid state for operation",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error()=%q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientError_Unwrap(t *testing.T) {
	err := NewClientError("abc123", "close", ErrInvalidState)

	if !errors.Is(err, ErrInvalidState) {
		t.Error("errors.Is failed to find the sentinel")
	}
	if errors.Is(err, ErrNotOpen) {
		t.Error("errors.Is matched an unrelated sentinel")
	}

	var cerr *ClientError
	if !errors.As(err, &cerr) || cerr.SID != "abc123" || cerr.Op != "close" {
		t.Errorf("errors.As got %+v, want SID=abc123 op=close", cerr)
	}
}
