package client

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/siolink-dev/siolink/pkg/emitter"
	"github.com/siolink-dev/siolink/pkg/protocol"
)

// AckResponder replies to an inbound event that requested an
// acknowledgement. The client appends it as the final handler argument;
// calling it sends an Ack packet echoing the event's id.
type AckResponder func(args ...any) error

// Client is a Socket.IO client over a single WebSocket connection. One
// client joins one namespace. Lifecycle and application events share
// the registry exposed through On, Once, and Off.
type Client struct {
	config  *Config
	logger  *slog.Logger
	metrics *clientMetrics
	tracer  trace.Tracer
	emitter *emitter.Emitter
	acks    *ackTable

	mu        sync.Mutex
	state     State
	transport Transport
	handshake *protocol.Handshake
	sid       string
	namespace string
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates a client. A nil config uses DefaultConfig.
func New(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.Clone()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = protocol.DefaultNamespace
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("client_id", shortID())
	metrics := newClientMetrics(cfg.Registry)
	return &Client{
		config:    cfg,
		logger:    logger,
		metrics:   metrics,
		tracer:    resolveTracer(cfg),
		emitter:   emitter.New(logger, lifecycleEvents...),
		acks:      newAckTable(metrics),
		state:     StateClosed,
		namespace: cfg.Namespace,
	}
}

// Open dials the server at rawURL. The URL's path selects the
// namespace to join; a root path leaves Config.Namespace in force. Only
// legal from Closed. Open returns once the transport is connected; the
// engine handshake completes asynchronously and is signaled by the
// Connect event, namespace membership by the Open event. ctx bounds
// the dial only.
func (c *Client) Open(ctx context.Context, rawURL string) error {
	endpoint, err := engineEndpoint(rawURL, c.config.Path)
	if err != nil {
		return NewClientError("", "open", err)
	}
	ns := namespaceFromURL(rawURL)

	c.mu.Lock()
	if c.state != StateClosed {
		state := c.state
		c.mu.Unlock()
		c.logger.Warn("open rejected", "state", state)
		return NewClientError("", "open", ErrInvalidState)
	}
	c.state = StateOpening
	if ns == "" {
		ns = c.config.Namespace
	}
	c.namespace = ns
	tr := c.config.Transport
	if tr == nil {
		tr = NewWebSocketTransport(c.config)
	}
	runCtx, cancel := context.WithCancel(context.Background())
	c.transport = tr
	c.ctx = runCtx
	c.cancel = cancel
	c.mu.Unlock()

	tr.OnData(c.handleData)
	tr.OnClose(c.handleTransportClose)

	c.logger.Debug("dialing", "endpoint", endpoint, "namespace", ns)
	if err := tr.Start(ctx, endpoint); err != nil {
		cancel()
		c.mu.Lock()
		c.state = StateClosed
		c.transport = nil
		c.ctx = nil
		c.cancel = nil
		c.mu.Unlock()
		return NewClientError("", "open", err)
	}
	return nil
}

// shortID tags every log line a client instance writes, so interleaved
// output from several clients stays attributable.
func shortID() string {
	return uuid.NewString()[:8]
}

// namespaceFromURL extracts the namespace a dial URL selects: its path,
// when one past the root is present. The engine endpoint itself is
// configured through Config.Path, never the dial URL.
func namespaceFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	ns := strings.TrimSuffix(u.Path, "/")
	if ns == "" {
		return ""
	}
	if !strings.HasPrefix(ns, "/") {
		ns = "/" + ns
	}
	return ns
}

// Close disconnects gracefully. Legal only while Opening or Open;
// closing a closed client returns ErrInvalidState. Pending
// acknowledgements fail with ErrClosed and event subscriptions are
// cleared, so handlers must be registered again before reopening.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.state != StateOpen && c.state != StateOpening {
		state := c.state
		sid := c.sid
		c.mu.Unlock()
		c.logger.Warn("close rejected", "state", state)
		return NewClientError(sid, "close", ErrInvalidState)
	}
	wasOpen := c.state == StateOpen
	c.state = StateClosing
	ctx := c.ctx
	ns := c.namespace
	c.mu.Unlock()

	// Announce departure before dropping the transport. Best effort:
	// the connection may already be failing.
	if wasOpen {
		if err := c.send(ctx, protocol.NewDisconnectPacket(ns)); err != nil {
			c.logger.Debug("disconnect packet not sent", "error", err)
		}
	}

	c.teardown("client", nil)
	return nil
}

// Emit sends a named event with JSON-encoded args, fire and forget.
// Use EmitWithAck to request a server acknowledgement.
func (c *Client) Emit(event string, args ...any) error {
	return c.emit(event, nil, args)
}

// EmitWithAck sends a named event and returns a handle that resolves
// when the server acknowledges it. The handle's id is unique for the
// lifetime of the connection.
func (c *Client) EmitWithAck(event string, args ...any) (*Ack, error) {
	ack := c.acks.register()
	if err := c.emit(event, ack, args); err != nil {
		c.acks.discard(ack.id)
		return nil, err
	}
	return ack, nil
}

func (c *Client) emit(event string, ack *Ack, args []any) error {
	c.mu.Lock()
	state := c.state
	sid := c.sid
	ns := c.namespace
	ctx := c.ctx
	c.mu.Unlock()
	if state != StateOpen {
		return NewClientError(sid, "emit", ErrNotOpen)
	}

	data, err := protocol.EncodeEventArgs(event, args...)
	if err != nil {
		return NewClientError(sid, "emit", err)
	}
	var id *uint64
	if ack != nil {
		id = &ack.id
	}
	_, span := c.startEmitSpan(event, ns, id)
	err = c.send(ctx, protocol.NewEventPacket(ns, id, data))
	endSpan(span, err)
	if err != nil {
		return NewClientError(sid, "emit", err)
	}
	return nil
}

// On registers fn for event. The returned func removes exactly that
// registration.
func (c *Client) On(event string, fn emitter.Handler) func() {
	return c.emitter.On(event, fn)
}

// Once registers fn to run for the next event only.
func (c *Client) Once(event string, fn emitter.Handler) func() {
	return c.emitter.Once(event, fn)
}

// Off removes every handler registered for event.
func (c *Client) Off(event string) {
	c.emitter.Off(event)
}

// State returns the lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connected reports whether the engine handshake has completed.
func (c *Client) Connected() bool {
	return c.State() == StateOpen
}

// SID returns the engine session id, empty before the handshake.
func (c *Client) SID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sid
}

// Namespace returns the namespace in force: the dial URL's path when
// one was given, Config.Namespace otherwise.
func (c *Client) Namespace() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.namespace
}

// Handshake returns the engine handshake, or nil before Connect.
func (c *Client) Handshake() *protocol.Handshake {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handshake
}

// PendingAcks returns the number of acknowledgements awaiting replies.
func (c *Client) PendingAcks() int {
	return c.acks.size()
}

// handleData decodes one inbound frame. Malformed frames are dropped
// and counted; they never terminate the connection.
func (c *Client) handleData(data []byte) {
	pkt, err := protocol.DecodePacket(data)
	if err != nil {
		c.metrics.recordDecodeError()
		c.logger.Error("packet decode failed", "error", err, "size", len(data))
		return
	}
	c.metrics.recordPacketReceived(packetLabel(pkt))
	c.dispatch(pkt)
}

// dispatch routes one decoded packet. The switch is exhaustive over
// packet types; anything the client does not consume is dropped with a
// warning.
func (c *Client) dispatch(pkt *protocol.Packet) {
	switch pkt.Type {
	case protocol.Open:
		c.handleOpen(pkt)
	case protocol.Ping:
		c.handlePing(pkt)
	case protocol.Pong:
		c.emitter.Emit(EventPong, string(pkt.Data))
	case protocol.Message:
		c.dispatchMessage(pkt)
	case protocol.Close:
		c.logger.Info("server closed the session")
		c.teardown("server", nil)
	case protocol.Upgrade, protocol.Noop:
		c.logger.Warn("unsupported packet dropped", "type", pkt.Type.String())
	default:
		c.logger.Warn("unsupported packet dropped", "type", pkt.Type.String())
	}
}

// handleOpen completes the engine handshake: record the session, join
// the selected namespace, and start the keepalive loop.
func (c *Client) handleOpen(pkt *protocol.Packet) {
	hs, err := protocol.DecodeHandshake(pkt.Data)
	if err != nil {
		c.metrics.recordDecodeError()
		c.logger.Error("handshake decode failed", "error", err)
		c.emitter.Emit(EventError, NewClientError("", "handshake", err))
		return
	}

	c.mu.Lock()
	if c.state != StateOpening {
		state := c.state
		c.mu.Unlock()
		c.logger.Warn("handshake in unexpected state", "state", state)
		return
	}
	c.state = StateOpen
	c.handshake = hs
	c.sid = hs.SID
	ns := c.namespace
	ctx := c.ctx
	c.mu.Unlock()

	c.metrics.recordConnect()
	c.logger.Info("connected",
		"sid", hs.SID,
		"ping_interval", hs.PingInterval.Duration(),
		"ping_timeout", hs.PingTimeout.Duration())

	c.emitter.Emit(EventHandshake, hs)
	c.emitter.Emit(EventConnect, hs.SID)

	// Non-root namespaces are joined explicitly; the server confirms
	// root membership on its own.
	if ns != protocol.DefaultNamespace {
		if err := c.send(ctx, protocol.NewConnectPacket(ns)); err != nil {
			c.logger.Warn("namespace connect failed", "namespace", ns, "error", err)
			c.emitter.Emit(EventError, NewClientError(hs.SID, "connect", err))
		}
	}

	go c.pingLoop(ctx, hs.PingInterval.Duration())
}

// handlePing answers a server-initiated ping with a pong echoing its
// payload.
func (c *Client) handlePing(pkt *protocol.Packet) {
	payload := string(pkt.Data)
	c.emitter.Emit(EventPing, payload)
	if err := c.send(c.runContext(), protocol.NewPongPacket(payload)); err != nil {
		c.logger.Warn("pong reply failed", "error", err)
	}
}

// dispatchMessage routes one namespace-level message. Messages for
// namespaces this client never joined are dropped.
func (c *Client) dispatchMessage(pkt *protocol.Packet) {
	ns := pkt.Namespace
	if ns == "" {
		ns = protocol.DefaultNamespace
	}
	if ns != c.Namespace() {
		c.logger.Warn("message for unjoined namespace dropped", "namespace", ns)
		return
	}

	switch pkt.Subtype {
	case protocol.Connect:
		c.handleConnectReply(pkt)
	case protocol.Disconnect:
		c.logger.Info("server requested disconnect")
		c.teardown("server", nil)
	case protocol.Event:
		c.handleEvent(pkt)
	case protocol.Ack:
		c.handleAck(pkt)
	case protocol.ConnectError:
		c.handleConnectError(pkt)
	case protocol.BinaryEvent, protocol.BinaryAck:
		// DecodePacket rejects binary subtypes before dispatch.
		c.logger.Warn("binary packet dropped", "subtype", pkt.Subtype.String())
	default:
		c.logger.Warn("unsupported message dropped", "subtype", pkt.Subtype.String())
	}
}

// handleConnectReply confirms namespace membership.
func (c *Client) handleConnectReply(pkt *protocol.Packet) {
	reply, err := protocol.DecodeConnectReply(pkt.Data)
	if err != nil {
		c.metrics.recordDecodeError()
		c.logger.Error("connect reply decode failed", "error", err)
		return
	}
	ns := c.Namespace()
	c.logger.Info("namespace joined", "namespace", ns, "sid", reply.SID)
	c.emitter.Emit(EventOpen, ns)
}

// handleEvent delivers a server event to subscribers. When the server
// requested an acknowledgement, a responder is appended as the final
// handler argument.
func (c *Client) handleEvent(pkt *protocol.Packet) {
	name, rawArgs, err := protocol.DecodeEventArgs(pkt.Data)
	if err != nil {
		c.metrics.recordDecodeError()
		c.logger.Error("event decode failed", "error", err)
		return
	}

	_, span := c.startDispatchSpan(name, len(rawArgs))
	defer endSpan(span, nil)

	args := make([]any, 0, len(rawArgs)+1)
	for _, raw := range rawArgs {
		args = append(args, raw)
	}
	if pkt.ID != nil {
		args = append(args, c.ackResponder(*pkt.ID))
	}
	c.emitter.Emit(name, args...)
}

// ackResponder builds the reply callback for an event that carries an
// ack id. The namespace is pinned at build time so a late reply still
// targets the connection that delivered the event.
func (c *Client) ackResponder(id uint64) AckResponder {
	ctx := c.runContext()
	ns := c.Namespace()
	return func(args ...any) error {
		data, err := protocol.EncodeAckArgs(args...)
		if err != nil {
			return NewClientError(c.SID(), "ack", err)
		}
		if err := c.send(ctx, protocol.NewAckPacket(ns, id, data)); err != nil {
			return NewClientError(c.SID(), "ack", err)
		}
		return nil
	}
}

// handleAck resolves the pending acknowledgement the server replied to.
func (c *Client) handleAck(pkt *protocol.Packet) {
	if pkt.ID == nil {
		c.logger.Warn("ack without id dropped")
		return
	}
	args, err := protocol.DecodeAckArgs(pkt.Data)
	if err != nil {
		c.metrics.recordDecodeError()
		c.logger.Error("ack decode failed", "error", err, "ack_id", *pkt.ID)
		return
	}
	if !c.acks.resolve(*pkt.ID, args) {
		c.logger.Warn("ack for unknown id dropped", "ack_id", *pkt.ID)
	}
}

// handleConnectError surfaces a refused namespace connection.
func (c *Client) handleConnectError(pkt *protocol.Packet) {
	refusal, err := protocol.DecodeConnectRefusal(pkt.Data)
	if err != nil {
		c.metrics.recordDecodeError()
		c.logger.Error("connect refusal decode failed", "error", err)
		refusal = &protocol.ConnectRefusal{Message: string(pkt.Data)}
	}
	c.logger.Error("namespace connection refused",
		"namespace", c.Namespace(), "message", refusal.Message)
	c.emitter.Emit(EventError, refusal)
}

// handleTransportClose runs when the connection drops without Stop.
func (c *Client) handleTransportClose(err error) {
	c.mu.Lock()
	state := c.state
	sid := c.sid
	c.mu.Unlock()
	if state == StateClosed || state == StateClosing {
		return
	}
	c.logger.Warn("transport closed unexpectedly", "error", err)
	c.teardown("transport", NewClientError(sid, "read", err))
}

// teardown releases the connection and moves to Closed. reason names
// the initiator for the Close event; err carries the transport failure
// when the connection dropped on its own. Safe to call from competing
// paths: only the first caller past the state check proceeds.
func (c *Client) teardown(reason string, err error) {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = StateClosed
	tr := c.transport
	cancel := c.cancel
	sid := c.sid
	c.transport = nil
	c.ctx = nil
	c.cancel = nil
	c.handshake = nil
	c.sid = ""
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if tr != nil {
		if stopErr := tr.Stop(); stopErr != nil {
			c.logger.Debug("transport stop failed", "error", stopErr)
		}
	}
	c.acks.fail(ErrClosed)
	c.metrics.recordDisconnect(reason)
	c.logger.Info("closed", "sid", sid, "reason", reason)

	if err != nil {
		c.emitter.Emit(EventError, err)
	}
	c.emitter.Emit(EventClose, reason)
	c.emitter.Reset(lifecycleEvents...)
}

// send encodes and writes one packet on the transport.
func (c *Client) send(ctx context.Context, pkt *protocol.Packet) error {
	c.mu.Lock()
	tr := c.transport
	c.mu.Unlock()
	if tr == nil {
		return ErrNoTransport
	}
	if err := tr.Send(ctx, pkt.Encode()); err != nil {
		return err
	}
	c.metrics.recordPacketSent(packetLabel(pkt))
	return nil
}

// runContext returns the connection-lifetime context, or a background
// context when no connection exists. Sends on the latter fail at the
// transport check instead.
func (c *Client) runContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// packetLabel is the metrics label for a packet, using the message
// subtype when one applies.
func packetLabel(p *protocol.Packet) string {
	if p.IsMessage() {
		switch p.Subtype {
		case protocol.Connect:
			return "connect"
		case protocol.Disconnect:
			return "disconnect"
		case protocol.Event:
			return "event"
		case protocol.Ack:
			return "ack"
		case protocol.ConnectError:
			return "connect_error"
		case protocol.BinaryEvent:
			return "binary_event"
		case protocol.BinaryAck:
			return "binary_ack"
		}
	}
	switch p.Type {
	case protocol.Open:
		return "open"
	case protocol.Close:
		return "close"
	case protocol.Ping:
		return "ping"
	case protocol.Pong:
		return "pong"
	case protocol.Upgrade:
		return "upgrade"
	case protocol.Noop:
		return "noop"
	default:
		return "unknown"
	}
}
