package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/siolink-dev/siolink/pkg/client"
)

type connectOptions struct {
	namespace   string
	path        string
	events      []string
	emits       []string
	headers     []string
	metricsAddr string
	dialTimeout time.Duration
	verbose     bool
}

func connectCmd() *cobra.Command {
	var opts connectOptions

	cmd := &cobra.Command{
		Use:   "connect <url>",
		Short: "Connect to a server and stream events",
		Long: `Connect to a Socket.IO server and print events as they arrive.

Lifecycle events (connect, open, close, errors, probe results) are
always reported. Subscribed events that request an acknowledgement
are acknowledged automatically.

Examples:
  siolink connect https://example.com
  siolink connect https://example.com/chat --event message
  siolink connect https://example.com --namespace /chat --event message
  siolink connect https://example.com --emit 'greet:["hello",1]'
  siolink connect https://example.com --metrics-addr :9090`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConnect(args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.namespace, "namespace", "n", "/", "Namespace to join (a path on the URL overrides this)")
	cmd.Flags().StringVar(&opts.path, "path", "/socket.io/", "Engine endpoint path")
	cmd.Flags().StringArrayVarP(&opts.events, "event", "e", nil, "Event name to subscribe to (repeatable)")
	cmd.Flags().StringArrayVar(&opts.emits, "emit", nil, "Event to send once connected, as name:[json args] (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.headers, "header", "H", nil, "Extra handshake header as Key:Value (repeatable)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	cmd.Flags().DurationVar(&opts.dialTimeout, "dial-timeout", 10*time.Second, "Connection timeout")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

type emitSpec struct {
	name string
	args []any
}

func parseEmitSpec(spec string) (emitSpec, error) {
	name, payload, found := strings.Cut(spec, ":")
	if name == "" {
		return emitSpec{}, fmt.Errorf("emit %q: missing event name", spec)
	}
	if !found || payload == "" {
		return emitSpec{name: name}, nil
	}
	var args []any
	if err := json.Unmarshal([]byte(payload), &args); err != nil {
		return emitSpec{}, fmt.Errorf("emit %q: arguments must be a JSON array: %w", spec, err)
	}
	return emitSpec{name: name, args: args}, nil
}

func runConnect(rawURL string, opts connectOptions) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// A path on the URL selects the namespace, same as the client does.
	namespace := opts.namespace
	if u, err := url.Parse(rawURL); err == nil {
		if p := strings.TrimSuffix(u.Path, "/"); p != "" {
			namespace = p
		}
	}

	cfg := client.DefaultConfig().
		WithNamespace(opts.namespace).
		WithPath(opts.path).
		WithLogger(logger)
	cfg.DialTimeout = opts.dialTimeout

	for _, h := range opts.headers {
		key, value, found := strings.Cut(h, ":")
		if !found {
			return fmt.Errorf("header %q: want Key:Value", h)
		}
		cfg.WithHeader(strings.TrimSpace(key), strings.TrimSpace(value))
	}

	emits := make([]emitSpec, 0, len(opts.emits))
	for _, spec := range opts.emits {
		parsed, err := parseEmitSpec(spec)
		if err != nil {
			return err
		}
		emits = append(emits, parsed)
	}

	if opts.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		cfg.WithRegistry(reg)
		go serveMetrics(logger, opts.metricsAddr, reg)
	}

	c := client.New(cfg)
	done := make(chan struct{}, 1)

	c.On(client.EventConnect, func(args ...any) {
		if len(args) == 1 {
			info("connected sid=%v", args[0])
		}
	})
	c.On(client.EventOpen, func(args ...any) {
		if len(args) == 1 {
			info("namespace %v ready", args[0])
		}
	})
	c.On(client.EventClose, func(args ...any) {
		if len(args) == 1 {
			info("closed by %v", args[0])
		}
		select {
		case done <- struct{}{}:
		default:
		}
	})
	c.On(client.EventError, func(args ...any) {
		if len(args) == 1 {
			errorMsg("%v", args[0])
		}
	})
	c.On(client.EventProbeError, func(args ...any) {
		if len(args) == 1 {
			errorMsg("probe: %v", args[0])
		}
	})

	for _, name := range opts.events {
		c.On(name, printEvent(name))
	}

	// Queue requested emits for the moment the connection is usable:
	// engine connect for the root namespace, the namespace ack
	// otherwise.
	if len(emits) > 0 {
		trigger := client.EventConnect
		if namespace != "" && namespace != "/" {
			trigger = client.EventOpen
		}
		c.Once(trigger, func(...any) {
			for _, e := range emits {
				if err := c.Emit(e.name, e.args...); err != nil {
					errorMsg("emit %s: %v", e.name, err)
				}
			}
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, opts.dialTimeout)
	defer cancel()
	if err := c.Open(dialCtx, rawURL); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		if err := c.Close(); err != nil && !errors.Is(err, client.ErrInvalidState) {
			return err
		}
	case <-done:
	}
	return nil
}

// printEvent writes one line per delivery: timestamp, event name, and
// the raw JSON arguments. An appended acknowledgement request is
// answered immediately.
func printEvent(name string) func(args ...any) {
	return func(args ...any) {
		parts := make([]string, 0, len(args))
		for _, arg := range args {
			switch v := arg.(type) {
			case json.RawMessage:
				parts = append(parts, string(v))
			case client.AckResponder:
				if err := v(); err == nil {
					parts = append(parts, "(acked)")
				}
			default:
				parts = append(parts, fmt.Sprintf("%v", v))
			}
		}
		fmt.Printf("%s %s %s\n", time.Now().Format(time.RFC3339), name, strings.Join(parts, " "))
	}
}

func serveMetrics(logger *slog.Logger, addr string, reg *prometheus.Registry) {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	logger.Info("metrics listening", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Error("metrics server failed", "error", err)
	}
}
