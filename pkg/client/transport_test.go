package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestEngineEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		rawURL  string
		path    string
		want    string
		wantErr error
	}{
		{
			name:   "http_to_ws",
			rawURL: "http://example.com",
			want:   "ws://example.com/socket.io/?EIO=4&transport=websocket",
		},
		{
			name:   "https_to_wss",
			rawURL: "https://example.com:8443",
			want:   "wss://example.com:8443/socket.io/?EIO=4&transport=websocket",
		},
		{
			name:   "ws_kept",
			rawURL: "ws://example.com",
			want:   "ws://example.com/socket.io/?EIO=4&transport=websocket",
		},
		{
			name:   "query_preserved",
			rawURL: "http://example.com?token=abc",
			want:   "ws://example.com/socket.io/?EIO=4&token=abc&transport=websocket",
		},
		{
			name:   "custom_path",
			rawURL: "http://example.com",
			path:   "/io/",
			want:   "ws://example.com/io/?EIO=4&transport=websocket",
		},
		{
			name:    "bad_scheme",
			rawURL:  "ftp://example.com",
			wantErr: ErrBadScheme,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engineEndpoint(tt.rawURL, tt.path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error=%v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("engineEndpoint failed: %v", err)
			}
			if got != tt.want {
				t.Fatalf("endpoint=%q, want %q", got, tt.want)
			}
		})
	}
}

// echoServer upgrades every request and echoes text frames back.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestTransport() *WebSocketTransport {
	cfg := DefaultConfig()
	cfg.DialTimeout = 2 * time.Second
	cfg.Logger = quietLogger()
	return NewWebSocketTransport(cfg)
}

func TestWebSocketTransport_SendAndReceive(t *testing.T) {
	ts := echoServer(t)

	tr := newTestTransport()
	received := make(chan []byte, 8)
	tr.OnData(func(data []byte) { received <- data })
	tr.OnClose(func(err error) {})

	if err := tr.Start(context.Background(), "ws"+strings.TrimPrefix(ts.URL, "http")); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { _ = tr.Stop() })

	if err := tr.Send(context.Background(), []byte("2probe")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	select {
	case data := <-received:
		if string(data) != "2probe" {
			t.Fatalf("received=%q, want %q", data, "2probe")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the echo")
	}
}

func TestWebSocketTransport_DoubleStartFails(t *testing.T) {
	ts := echoServer(t)

	tr := newTestTransport()
	tr.OnData(func([]byte) {})
	tr.OnClose(func(error) {})

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	if err := tr.Start(context.Background(), url); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { _ = tr.Stop() })

	if err := tr.Start(context.Background(), url); !errors.Is(err, ErrTransportStarted) {
		t.Fatalf("second Start error=%v, want ErrTransportStarted", err)
	}
}

func TestWebSocketTransport_StopSuppressesOnClose(t *testing.T) {
	ts := echoServer(t)

	tr := newTestTransport()
	closed := make(chan error, 1)
	tr.OnData(func([]byte) {})
	tr.OnClose(func(err error) { closed <- err })

	if err := tr.Start(context.Background(), "ws"+strings.TrimPrefix(ts.URL, "http")); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := tr.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	select {
	case err := <-closed:
		t.Fatalf("OnClose fired for a deliberate stop: %v", err)
	case <-time.After(200 * time.Millisecond):
	}

	if err := tr.Stop(); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
}

func TestWebSocketTransport_ServerCloseFiresOnClose(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	serverConns := make(chan *websocket.Conn, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade failed: %v", err)
			return
		}
		serverConns <- conn
	}))
	t.Cleanup(ts.Close)

	tr := newTestTransport()
	closed := make(chan error, 1)
	tr.OnData(func([]byte) {})
	tr.OnClose(func(err error) { closed <- err })

	if err := tr.Start(context.Background(), "ws"+strings.TrimPrefix(ts.URL, "http")); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	server := <-serverConns
	server.Close()

	select {
	case err := <-closed:
		if err == nil {
			t.Fatal("OnClose fired with a nil error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnClose never fired after the server dropped")
	}
}

func TestWebSocketTransport_SendAfterStopFails(t *testing.T) {
	ts := echoServer(t)

	tr := newTestTransport()
	tr.OnData(func([]byte) {})
	tr.OnClose(func(error) {})

	if err := tr.Start(context.Background(), "ws"+strings.TrimPrefix(ts.URL, "http")); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := tr.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if err := tr.Send(context.Background(), []byte("2")); !errors.Is(err, ErrTransportClosed) {
		t.Fatalf("Send error=%v, want ErrTransportClosed", err)
	}
}

func TestWebSocketTransport_RestartAfterStop(t *testing.T) {
	ts := echoServer(t)

	tr := newTestTransport()
	received := make(chan []byte, 8)
	tr.OnData(func(data []byte) { received <- data })
	tr.OnClose(func(error) {})

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	if err := tr.Start(context.Background(), url); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	if err := tr.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if err := tr.Start(context.Background(), url); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	t.Cleanup(func() { _ = tr.Stop() })

	if err := tr.Send(context.Background(), []byte("3ok")); err != nil {
		t.Fatalf("Send after restart failed: %v", err)
	}
	select {
	case data := <-received:
		if string(data) != "3ok" {
			t.Fatalf("received=%q, want %q", data, "3ok")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the echo after restart")
	}
}

func TestWebSocketTransport_DialFailure(t *testing.T) {
	tr := newTestTransport()
	tr.OnData(func([]byte) {})
	tr.OnClose(func(error) {})

	err := tr.Start(context.Background(), "ws://127.0.0.1:1/socket.io/")
	if err == nil {
		t.Fatal("Start succeeded against a dead endpoint")
	}
}

// wireServer speaks enough of the protocol to exercise a real client:
// it sends the engine handshake on upgrade, answers connect and ping,
// and acknowledges events that carry an id.
func wireServer(t *testing.T, handshake string) (*httptest.Server, chan string) {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	frames := make(chan string, 64)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/socket.io/" {
			t.Errorf("path=%q, want /socket.io/", r.URL.Path)
		}
		if got := r.URL.Query().Get("EIO"); got != "4" {
			t.Errorf("EIO=%q, want 4", got)
		}
		if got := r.URL.Query().Get("transport"); got != "websocket" {
			t.Errorf("transport=%q, want websocket", got)
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		var mu sync.Mutex
		write := func(frame string) {
			mu.Lock()
			defer mu.Unlock()
			_ = conn.WriteMessage(websocket.TextMessage, []byte(frame))
		}

		write(handshake)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			frame := string(data)
			select {
			case frames <- frame:
			default:
			}

			switch {
			case strings.HasPrefix(frame, "40"):
				// Confirm the namespace join with a session id. The
				// client's frame ends with the namespace separator, so
				// the payload appends cleanly.
				write(frame + `{"sid":"ns-1"}`)
			case strings.HasPrefix(frame, "2"):
				write("3" + frame[1:])
			case strings.HasPrefix(frame, "42"):
				rest := frame[2:]
				end := 0
				for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
					end++
				}
				if end > 0 {
					write("43" + rest[:end] + `["ok"]`)
				}
			}
		}
	}))
	t.Cleanup(ts.Close)
	return ts, frames
}

func TestClient_OverWebSocket(t *testing.T) {
	handshake := `0{"sid":"e2e","upgrades":[],"pingInterval":50,"pingTimeout":2000,"maxPayload":1000000}`
	ts, frames := wireServer(t, handshake)

	cfg := DefaultConfig()
	cfg.Logger = quietLogger()
	c := New(cfg)

	connectCh := eventChan(c, EventConnect)
	probeCh := eventChan(c, EventProbeSuccess)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Open(ctx, ts.URL); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	args := waitEvent(t, connectCh)
	if args[0] != "e2e" {
		t.Fatalf("connect args=%v, want [e2e]", args)
	}

	// The server echoes probe payloads, so the keepalive loop must
	// report success.
	waitEvent(t, probeCh)

	ack, err := c.EmitWithAck("job", "payload")
	if err != nil {
		t.Fatalf("EmitWithAck failed: %v", err)
	}
	reply, err := ack.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if len(reply) != 1 || string(reply[0]) != `"ok"` {
		t.Fatalf("reply=%v, want [\"ok\"]", reply)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if got := c.State(); got != StateClosed {
		t.Fatalf("state=%v, want %v", got, StateClosed)
	}

	// The server saw the probe and the event frames.
	deadline := time.After(2 * time.Second)
	sawPing, sawEvent := false, false
	for !(sawPing && sawEvent) {
		select {
		case frame := <-frames:
			if strings.HasPrefix(frame, "2") {
				sawPing = true
			}
			if strings.HasPrefix(frame, "42") {
				sawEvent = true
			}
		case <-deadline:
			t.Fatalf("server frames incomplete: ping=%v event=%v", sawPing, sawEvent)
		}
	}
}

func TestClient_NamespaceOverWebSocket(t *testing.T) {
	handshake := `0{"sid":"e2e-ns","upgrades":[],"pingInterval":60000,"pingTimeout":2000,"maxPayload":1000000}`
	ts, frames := wireServer(t, handshake)

	cfg := DefaultConfig().WithNamespace("/chat")
	cfg.Logger = quietLogger()
	c := New(cfg)

	openCh := eventChan(c, EventOpen)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Open(ctx, ts.URL); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if c.State() == StateOpen || c.State() == StateOpening {
			_ = c.Close()
		}
	})

	waitEvent(t, openCh)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case frame := <-frames:
			if frame == "40/chat," {
				return
			}
		case <-deadline:
			t.Fatal("server never saw the namespace connect frame")
		}
	}
}

func TestClient_URLNamespaceOverWebSocket(t *testing.T) {
	handshake := `0{"sid":"e2e-url","upgrades":[],"pingInterval":60000,"pingTimeout":2000,"maxPayload":1000000}`
	ts, frames := wireServer(t, handshake)

	cfg := DefaultConfig()
	cfg.Logger = quietLogger()
	c := New(cfg)

	openCh := eventChan(c, EventOpen)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Open(ctx, ts.URL+"/jobs"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if c.State() == StateOpen || c.State() == StateOpening {
			_ = c.Close()
		}
	})

	waitEvent(t, openCh)

	if got := c.Namespace(); got != "/jobs" {
		t.Fatalf("Namespace()=%q, want %q", got, "/jobs")
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case frame := <-frames:
			if frame == "40/jobs," {
				return
			}
		case <-deadline:
			t.Fatal("server never saw the namespace connect frame")
		}
	}
}
