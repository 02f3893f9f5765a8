package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Operation is one traced unit of work, usually a single dispatch.
type Operation struct {
	span  trace.Span
	start time.Time
}

// StartOperation starts a span named spanName tagged with the request type.
func StartOperation(ctx context.Context, spanName, requestType string, attrs ...attribute.KeyValue) (context.Context, *Operation) {
	ctx, span := StartSpan(ctx, spanName, trace.WithAttributes(
		append([]attribute.KeyValue{attribute.String(AttrRequestType, requestType)}, attrs...)...,
	))
	return ctx, &Operation{span: span, start: time.Now()}
}

// Span returns the operation's span.
func (o *Operation) Span() trace.Span { return o.span }

// Duration returns the time elapsed since the operation started.
func (o *Operation) Duration() time.Duration { return time.Since(o.start) }

// End records the outcome and ends the span.
func (o *Operation) End(err error) {
	o.span.SetAttributes(
		attribute.String(AttrStatus, Status(err)),
		attribute.Int64(AttrDurationMs, o.Duration().Milliseconds()),
	)
	if err != nil {
		o.span.RecordError(err)
		o.span.SetAttributes(attribute.String(AttrErrorCode, ErrorCode(err)))
		o.span.SetStatus(codes.Error, err.Error())
	}
	o.span.End()
}
