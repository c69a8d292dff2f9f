// Package tracing wraps go.opentelemetry.io/otel behind a single
// StartTracing helper, used at call sites as
// `ctx, span, deferFn := tracing.StartTracing(ctx, name, opts...)`
// followed by `defer deferFn()`.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/iron-fish/chaincore"

// Option configures a started span.
type Option func(*options)

type options struct {
	attrs []attribute.KeyValue
}

// WithAttributes attaches key/value pairs to the started span.
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return func(o *options) {
		o.attrs = append(o.attrs, attrs...)
	}
}

// StartTracing starts a span named name under the package tracer, returning
// the derived context, the span, and a deferFn that ends the span -
// callers write `ctx, span, deferFn := tracing.StartTracing(ctx, "name")`
// then `defer deferFn()`.
func StartTracing(ctx context.Context, name string, opts ...Option) (context.Context, trace.Span, func()) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	tracer := otel.Tracer(tracerName)
	spanCtx, span := tracer.Start(ctx, name, trace.WithAttributes(o.attrs...))

	return spanCtx, span, func() { span.End() }
}

// RecordError marks the current span as failed with err, if err is
// non-nil.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
