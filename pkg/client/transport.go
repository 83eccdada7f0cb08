package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/siolink-dev/siolink/pkg/protocol"
)

// Transport moves encoded packets between the client and the server.
// Inbound delivery is push-based: the transport invokes the OnData
// callback from its own goroutine as frames arrive.
type Transport interface {
	// Start connects to the endpoint and begins delivering inbound
	// frames. A stopped transport may be started again.
	Start(ctx context.Context, endpoint string) error

	// Send writes one encoded packet.
	Send(ctx context.Context, data []byte) error

	// Stop closes the connection. Safe to call more than once.
	Stop() error

	// OnData registers the inbound frame callback. Must be set before
	// Start.
	OnData(fn func(data []byte))

	// OnClose registers a callback fired when the connection drops for
	// any reason other than Stop. Must be set before Start.
	OnClose(fn func(err error))
}

// engineEndpoint rewrites a caller-supplied URL into the engine's
// WebSocket endpoint: ws(s) scheme, engine path, and the protocol
// version and transport query parameters. Query parameters already on
// the URL are preserved.
func engineEndpoint(rawURL, path string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("%w: %q", ErrBadScheme, u.Scheme)
	}
	if path == "" {
		path = protocol.DefaultPath
	}
	u.Path = path
	q := u.Query()
	q.Set(protocol.QueryEIO, strconv.Itoa(protocol.EngineProtocol))
	q.Set(protocol.QueryTransport, protocol.TransportWebSocket)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// WebSocketTransport is the default Transport, backed by a single
// WebSocket connection. It is restartable: Stop then Start dials a
// fresh connection.
type WebSocketTransport struct {
	dialer         *websocket.Dialer
	header         http.Header
	writeTimeout   time.Duration
	readTimeout    time.Duration
	maxMessageSize int64
	logger         *slog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	closed atomic.Bool

	onData  func([]byte)
	onClose func(error)
}

// NewWebSocketTransport builds a transport from the client config.
func NewWebSocketTransport(cfg *Config) *WebSocketTransport {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketTransport{
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.DialTimeout,
		},
		header:         cfg.Header,
		writeTimeout:   cfg.WriteTimeout,
		readTimeout:    cfg.ReadTimeout,
		maxMessageSize: cfg.MaxMessageSize,
		logger:         logger,
	}
}

// Start dials the endpoint and spawns the read pump.
func (t *WebSocketTransport) Start(ctx context.Context, endpoint string) error {
	t.mu.Lock()
	if t.conn != nil {
		t.mu.Unlock()
		return ErrTransportStarted
	}
	t.mu.Unlock()

	conn, resp, err := t.dialer.DialContext(ctx, endpoint, t.header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("client: dial %s: %s: %w", endpoint, resp.Status, err)
		}
		return fmt.Errorf("client: dial %s: %w", endpoint, err)
	}
	if t.maxMessageSize > 0 {
		conn.SetReadLimit(t.maxMessageSize)
	}

	t.mu.Lock()
	t.conn = conn
	t.closed.Store(false)
	t.mu.Unlock()

	go t.readPump(conn)
	return nil
}

// readPump delivers inbound frames until the connection fails or Stop
// closes it.
func (t *WebSocketTransport) readPump(conn *websocket.Conn) {
	for {
		if t.readTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(t.readTimeout))
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.finishRead(conn, err)
			return
		}
		if t.onData != nil {
			t.onData(data)
		}
	}
}

// finishRead tears down after a read error. The close callback fires
// only when this pump's connection is still current and the error was
// not caused by Stop.
func (t *WebSocketTransport) finishRead(conn *websocket.Conn, err error) {
	conn.Close()

	t.mu.Lock()
	current := t.conn == conn
	if current {
		t.conn = nil
	}
	stopped := t.closed.Load()
	t.mu.Unlock()

	if !current || stopped {
		return
	}
	if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		t.logger.Warn("websocket read failed", "error", err)
	}
	if t.onClose != nil {
		t.onClose(err)
	}
}

// Send writes one text frame under the write deadline.
func (t *WebSocketTransport) Send(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.closed.Load() {
		return ErrTransportClosed
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return ErrTransportClosed
	}
	if t.writeTimeout > 0 {
		t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
	}
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

// Stop sends a close frame and closes the connection. The OnClose
// callback does not fire for a deliberate stop.
func (t *WebSocketTransport) Stop() error {
	if t.closed.Swap(true) {
		return nil
	}

	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn == nil {
		return nil
	}
	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return conn.Close()
}

// OnData registers the inbound frame callback.
func (t *WebSocketTransport) OnData(fn func(data []byte)) {
	t.onData = fn
}

// OnClose registers the unexpected-close callback.
func (t *WebSocketTransport) OnClose(fn func(err error)) {
	t.onClose = fn
}
