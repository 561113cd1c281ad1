package client

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for connection spans.
const tracerName = "craftwire"

// Span event names recorded on the connect span.
const (
	eventEncryption  = "craftwire.encryption_enabled"
	eventCompression = "craftwire.compression_enabled"
	eventJoined      = "craftwire.session_joined"
	eventLogin       = "craftwire.login_success"
)

func (c *Connection) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.cfg.Tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("craftwire.server", c.addr.String()),
			attribute.Int("craftwire.protocol_version", int(c.cfg.ProtocolVersion)),
			attribute.Bool("craftwire.online", c.cfg.Online()),
		),
	)
}

// endSpan closes span with the outcome of the operation.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("craftwire.error_class", errorClass(err)))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// spanEvent adds an event to the in-flight connect span, if any.
func (c *Connection) spanEvent(name string, attrs ...attribute.KeyValue) {
	if span := c.span.Load(); span != nil {
		(*span).AddEvent(name, trace.WithAttributes(attrs...))
	}
}
