package client

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// ackResult carries the server reply or the teardown error.
type ackResult struct {
	args []json.RawMessage
	err  error
}

// Ack is the handle for one in-flight acknowledgement, returned by
// EmitWithAck.
type Ack struct {
	id     uint64
	sentAt time.Time
	ch     chan ackResult
}

// ID returns the packet id the server will echo back.
func (a *Ack) ID() uint64 {
	return a.id
}

// Wait blocks until the server reply arrives, the connection closes, or
// ctx is done. The reply payload is returned as raw JSON values.
func (a *Ack) Wait(ctx context.Context) ([]json.RawMessage, error) {
	select {
	case res := <-a.ch:
		return res.args, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ackTable tracks pending acknowledgements. IDs are strictly increasing
// for the lifetime of the connection; the counter restarts when the
// connection closes.
type ackTable struct {
	next    atomic.Uint64
	metrics *clientMetrics

	mu      sync.Mutex
	pending map[uint64]*Ack
}

func newAckTable(metrics *clientMetrics) *ackTable {
	return &ackTable{
		metrics: metrics,
		pending: make(map[uint64]*Ack),
	}
}

// register allocates the next id and tracks its handle.
func (t *ackTable) register() *Ack {
	ack := &Ack{
		id:     t.next.Add(1),
		sentAt: time.Now(),
		ch:     make(chan ackResult, 1),
	}
	t.mu.Lock()
	t.pending[ack.id] = ack
	n := len(t.pending)
	t.mu.Unlock()
	t.metrics.setPendingAcks(n)
	return ack
}

// resolve completes the acknowledgement for id. Returns false when the
// id is unknown, which usually means a duplicate or stale server reply.
func (t *ackTable) resolve(id uint64, args []json.RawMessage) bool {
	t.mu.Lock()
	ack, ok := t.pending[id]
	if ok {
		delete(t.pending, id)
	}
	n := len(t.pending)
	t.mu.Unlock()
	if !ok {
		return false
	}
	// Entries leave the table exactly once, so the buffered send cannot
	// block or double-fire.
	ack.ch <- ackResult{args: args}
	t.metrics.observeAckRoundtrip(time.Since(ack.sentAt))
	t.metrics.setPendingAcks(n)
	return true
}

// discard drops a pending entry without delivering a result. Used when
// the send that registered it never reached the wire.
func (t *ackTable) discard(id uint64) {
	t.mu.Lock()
	delete(t.pending, id)
	n := len(t.pending)
	t.mu.Unlock()
	t.metrics.setPendingAcks(n)
}

// fail completes every pending acknowledgement with err and restarts
// the id counter. Called at teardown so no waiter blocks forever and a
// reopened client starts a fresh id sequence.
func (t *ackTable) fail(err error) {
	t.mu.Lock()
	abandoned := make([]*Ack, 0, len(t.pending))
	for id, ack := range t.pending {
		abandoned = append(abandoned, ack)
		delete(t.pending, id)
	}
	t.mu.Unlock()

	for _, ack := range abandoned {
		ack.ch <- ackResult{err: err}
	}
	t.next.Store(0)
	t.metrics.setPendingAcks(0)
}

// size returns the number of pending acknowledgements.
func (t *ackTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
