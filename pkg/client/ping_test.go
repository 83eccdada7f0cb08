package client

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestClient_FirstProbeFollowsHandshake(t *testing.T) {
	c, fake := newTestClient(t, nil)
	openClient(t, c, fake)

	frame := waitFramePrefix(t, fake, "2")
	if len(frame) < 2 {
		t.Fatalf("probe frame=%q, want a payload after the type digit", frame)
	}
}

func TestClient_ProbeSuccessOnMatchingPong(t *testing.T) {
	c, fake := newTestClient(t, nil)
	successCh := eventChan(c, EventProbeSuccess)
	pongCh := eventChan(c, EventPong)
	openClient(t, c, fake)

	probe := waitFramePrefix(t, fake, "2")
	payload := probe[1:]

	fake.push("3" + payload)

	args := waitEvent(t, pongCh)
	if len(args) != 1 || args[0] != payload {
		t.Fatalf("pong args=%v, want [%s]", args, payload)
	}
	args = waitEvent(t, successCh)
	if len(args) != 1 || args[0] != payload {
		t.Fatalf("probe success args=%v, want [%s]", args, payload)
	}
}

func TestClient_ProbeMismatchEmitsProbeError(t *testing.T) {
	c, fake := newTestClient(t, nil)
	errorCh := eventChan(c, EventProbeError)
	openClient(t, c, fake)

	waitFramePrefix(t, fake, "2")
	fake.push("3tampered")

	args := waitEvent(t, errorCh)
	detail, ok := args[0].(string)
	if !ok || !strings.Contains(detail, "mismatch") {
		t.Fatalf("probe error args=%v, want a mismatch description", args)
	}
	if got := c.State(); got != StateOpen {
		t.Fatalf("state=%v after probe mismatch, want %v", got, StateOpen)
	}
}

func TestClient_ProbeLoopSurvivesMismatch(t *testing.T) {
	c, fake := newTestClient(t, nil)
	errorCh := eventChan(c, EventProbeError)
	if err := c.Open(context.Background(), "http://example.test"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	fake.push(handshakeFrame(40, 20000))

	waitFramePrefix(t, fake, "2")
	fake.push("3tampered")
	waitEvent(t, errorCh)

	// The next interval must still produce a probe.
	waitFramePrefix(t, fake, "2")
}

func TestClient_ProbeLoopSurvivesSendFailure(t *testing.T) {
	c, fake := newTestClient(t, nil)
	errCh := eventChan(c, EventError)
	if err := c.Open(context.Background(), "http://example.test"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	fake.push(handshakeFrame(40, 20000))

	waitFramePrefix(t, fake, "2")
	fake.setFailSend(errors.New("wire jam"))

	args := waitEvent(t, errCh)
	werr, ok := args[0].(error)
	if !ok || !strings.Contains(werr.Error(), "wire jam") {
		t.Fatalf("error args=%v, want the send failure", args)
	}

	fake.setFailSend(nil)
	waitFramePrefix(t, fake, "2")
	if got := c.State(); got != StateOpen {
		t.Fatalf("state=%v, want %v", got, StateOpen)
	}
}

func TestClient_ProbesStopAfterClose(t *testing.T) {
	c, fake := newTestClient(t, nil)
	if err := c.Open(context.Background(), "http://example.test"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	fake.push(handshakeFrame(30, 20000))
	waitFramePrefix(t, fake, "2")

	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Teardown is synchronous, so anything in the buffer predates it.
	for {
		select {
		case <-fake.sent:
			continue
		default:
		}
		break
	}

	select {
	case frame := <-fake.sent:
		t.Fatalf("frame sent after close: %q", frame)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestClient_StrayPongWithoutProbe(t *testing.T) {
	c, fake := newTestClient(t, nil)
	pongCh := eventChan(c, EventPong)
	successCh := eventChan(c, EventProbeSuccess)
	errorCh := eventChan(c, EventProbeError)
	openClient(t, c, fake)

	// Consume the first probe's subscription with a matching pong.
	probe := waitFramePrefix(t, fake, "2")
	fake.push("3" + probe[1:])
	waitEvent(t, pongCh)
	waitEvent(t, successCh)

	// A pong with no outstanding probe is surfaced but not judged.
	fake.push("3uninvited")
	args := waitEvent(t, pongCh)
	if args[0] != "uninvited" {
		t.Fatalf("pong args=%v, want [uninvited]", args)
	}
	select {
	case extra := <-successCh:
		t.Fatalf("probe success without probe: %v", extra)
	case extra := <-errorCh:
		t.Fatalf("probe error without probe: %v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}
