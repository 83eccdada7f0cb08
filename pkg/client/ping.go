package client

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/siolink-dev/siolink/pkg/protocol"
)

// pingLoop probes the server for liveness. The first probe goes out as
// soon as the handshake completes, then one per interval. A failed
// probe is logged, surfaced as an Error event, and the loop moves on to
// the next interval; only ctx cancellation at teardown stops the loop.
func (c *Client) pingLoop(ctx context.Context, interval time.Duration) {
	timer := time.NewTimer(interval)
	defer timer.Stop()

	cancelProbe := c.sendProbe(ctx)
	for {
		select {
		case <-ctx.Done():
			cancelProbe()
			return
		case <-timer.C:
		}

		// Drop the previous probe's pong subscription before arming a
		// new one, so at most one probe is outstanding.
		cancelProbe()
		cancelProbe = c.sendProbe(ctx)
		timer.Reset(interval)
	}
}

// sendProbe sends one ping with a unique payload and registers a
// one-shot pong subscriber that validates the echo. The returned cancel
// func drops the subscription when no pong ever arrives.
func (c *Client) sendProbe(ctx context.Context) (cancel func()) {
	payload := uuid.NewString()
	off := c.emitter.Once(EventPong, func(args ...any) {
		var got string
		if len(args) > 0 {
			got, _ = args[0].(string)
		}
		if got == payload {
			c.metrics.recordProbe("success")
			c.emitter.Emit(EventProbeSuccess, payload)
			return
		}
		c.metrics.recordProbe("mismatch")
		c.logger.Warn("probe payload mismatch", "sent", payload, "received", got)
		c.emitter.Emit(EventProbeError,
			fmt.Sprintf("pong payload mismatch: sent %q, received %q", payload, got))
	})

	if err := c.send(ctx, protocol.NewPingPacket(payload)); err != nil {
		off()
		if ctx.Err() != nil {
			// Teardown is in progress, not a probe failure.
			return func() {}
		}
		c.metrics.recordProbe("error")
		c.logger.Warn("probe send failed", "error", err)
		c.emitter.Emit(EventError, NewClientError(c.SID(), "probe", err))
		return func() {}
	}
	return off
}
