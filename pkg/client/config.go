package client

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/siolink-dev/siolink/pkg/protocol"
)

// Config holds client configuration.
type Config struct {
	// Namespace is joined after the engine handshake completes. A
	// namespace in the dial URL's path takes precedence.
	// Default: "/" (the root namespace, joined implicitly).
	Namespace string

	// Path is the engine endpoint path on the server.
	// Default: "/socket.io/".
	Path string

	// Header carries extra HTTP headers for the WebSocket handshake,
	// such as Authorization or Origin. May be nil.
	Header http.Header

	// Timeouts
	DialTimeout  time.Duration // Default: 10s.
	WriteTimeout time.Duration // Default: 10s.
	// ReadTimeout bounds the silence between inbound frames. Zero
	// disables the read deadline. Default: 60s.
	ReadTimeout time.Duration

	// MaxMessageSize limits inbound frame size in bytes.
	// Default: 1000000 (the engine default max payload).
	MaxMessageSize int64

	// Transport overrides the WebSocket transport. A transport must
	// support Start after Stop so the client can be reopened.
	// Default: nil (a WebSocket transport is built from this config).
	Transport Transport

	// Logger for client events. Default: slog.Default().
	Logger *slog.Logger

	// Registry receives client metrics. Default: nil (metrics disabled).
	Registry prometheus.Registerer

	// Tracer for emit and dispatch spans. Default: nil (the global
	// tracer provider is used, which is a no-op unless configured).
	Tracer trace.Tracer
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Namespace:      protocol.DefaultNamespace,
		Path:           protocol.DefaultPath,
		DialTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		MaxMessageSize: protocol.DefaultMaxPayload,
	}
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Header != nil {
		clone.Header = c.Header.Clone()
	}
	return &clone
}

// WithNamespace sets the namespace to join after the handshake.
func (c *Config) WithNamespace(ns string) *Config {
	c.Namespace = ns
	return c
}

// WithPath sets the engine endpoint path.
func (c *Config) WithPath(path string) *Config {
	c.Path = path
	return c
}

// WithHeader adds an HTTP header to the WebSocket handshake.
func (c *Config) WithHeader(key, value string) *Config {
	if c.Header == nil {
		c.Header = http.Header{}
	}
	c.Header.Add(key, value)
	return c
}

// WithLogger sets the logger.
func (c *Config) WithLogger(logger *slog.Logger) *Config {
	c.Logger = logger
	return c
}

// WithRegistry enables metrics on the given registry.
func (c *Config) WithRegistry(reg prometheus.Registerer) *Config {
	c.Registry = reg
	return c
}

// WithTracer sets the tracer.
func (c *Config) WithTracer(tracer trace.Tracer) *Config {
	c.Tracer = tracer
	return c
}

// WithTransport overrides the transport.
func (c *Config) WithTransport(tr Transport) *Config {
	c.Transport = tr
	return c
}
