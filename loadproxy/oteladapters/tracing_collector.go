package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy"
)

// TracingCollector implements loadproxy.TracingCollector with an otel Tracer.
type TracingCollector struct {
	tracer trace.Tracer
}

// NewTracingCollector creates a collector starting spans on tracer.
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

// StartSpan starts a span carrying attrs and returns the context holding it.
func (t *TracingCollector) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, loadproxy.SpanContext) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attributes(attrs)...))

	return ctx, &SpanContext{span: span}
}

// FinishSpan sets attrs and status, then ends the span. Foreign SpanContext values are ignored.
func (t *TracingCollector) FinishSpan(spanCtx loadproxy.SpanContext, status string, attrs map[string]string) {
	span, ok := spanCtx.(*SpanContext)
	if !ok {
		return
	}

	span.span.SetAttributes(attributes(attrs)...)
	span.SetStatus(status)
	span.span.End()
}

// SpanContext wraps an otel span.
type SpanContext struct {
	span trace.Span
}

// SetStatus maps loadproxy status values onto otel status codes.
func (s *SpanContext) SetStatus(status string) {
	switch status {
	case loadproxy.StatusSuccess:
		s.span.SetStatus(codes.Ok, "")
	case loadproxy.StatusTimeout:
		s.span.SetStatus(codes.Error, "query timed out")
	case loadproxy.StatusError:
		s.span.SetStatus(codes.Error, "query failed")
	default:
		s.span.SetStatus(codes.Unset, status)
	}
}

// AddAttribute sets a string attribute on the span.
func (s *SpanContext) AddAttribute(key, value string) {
	s.span.SetAttributes(attributes(map[string]string{key: value})...)
}

var (
	_ loadproxy.TracingCollector = (*TracingCollector)(nil)
	_ loadproxy.SpanContext      = (*SpanContext)(nil)
)
