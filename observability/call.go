package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Call tracks one client request: a client span plus the request metrics.
type Call struct {
	span      trace.Span
	metrics   *ClientMetrics
	transport string
	method    string
	start     time.Time
}

// StartCall opens the span "elastic.<method>" and records the request
// start. metrics may be nil.
func StartCall(ctx context.Context, metrics *ClientMetrics, transport, method, path string) (context.Context, *Call) {
	ctx, span := StartSpan(ctx, "elastic."+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(AttrTransport, transport),
			attribute.String(AttrMethod, method),
			attribute.String(AttrPath, path),
		),
	)
	if metrics != nil {
		metrics.RecordStart(ctx, transport)
	}
	return ctx, &Call{
		span:      span,
		metrics:   metrics,
		transport: transport,
		method:    method,
		start:     time.Now(),
	}
}

// End closes the span. status is the service status, 0 when the request
// failed before a response; code is the error code of err, if any.
func (c *Call) End(ctx context.Context, status int, code string, err error) {
	duration := time.Since(c.start)

	if status > 0 {
		c.span.SetAttributes(attribute.Int(AttrStatus, status))
	}
	if err != nil {
		c.span.RecordError(err)
		c.span.SetStatus(codes.Error, err.Error())
		c.span.SetAttributes(
			attribute.String(AttrErrorCode, code),
			attribute.String(AttrErrorMessage, err.Error()),
		)
	}
	c.span.SetAttributes(attribute.Int64(AttrDurationMs, duration.Milliseconds()))
	c.span.End()

	if c.metrics != nil {
		c.metrics.RecordEnd(ctx, c.transport, c.method, status, duration)
		if err != nil {
			c.metrics.RecordError(ctx, c.transport, code)
		}
	}
}

// Duration returns the elapsed time since the call started.
func (c *Call) Duration() time.Duration {
	return time.Since(c.start)
}
