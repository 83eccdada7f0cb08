package client

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// defaultTracerName identifies client spans when no tracer is configured.
const defaultTracerName = "siolink"

// resolveTracer returns the configured tracer, or one from the global
// provider. The global provider is a no-op unless the application set
// one, so tracing costs nothing when unused.
func resolveTracer(cfg *Config) trace.Tracer {
	if cfg.Tracer != nil {
		return cfg.Tracer
	}
	return otel.Tracer(defaultTracerName)
}

// startEmitSpan opens a producer span for an outbound event.
func (c *Client) startEmitSpan(event, namespace string, ackID *uint64) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("siolink.event", event),
		attribute.String("siolink.namespace", namespace),
	}
	if ackID != nil {
		attrs = append(attrs, attribute.Int64("siolink.ack_id", int64(*ackID)))
	}
	return c.tracer.Start(
		context.Background(),
		"siolink.emit",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(attrs...),
	)
}

// startDispatchSpan opens a consumer span for an inbound event.
func (c *Client) startDispatchSpan(event string, argCount int) (context.Context, trace.Span) {
	return c.tracer.Start(
		context.Background(),
		"siolink.dispatch",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("siolink.event", event),
			attribute.String("siolink.namespace", c.Namespace()),
			attribute.Int("siolink.args", argCount),
		),
	)
}

// endSpan records the outcome and closes the span.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
