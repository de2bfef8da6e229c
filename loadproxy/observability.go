package loadproxy

import (
	"context"
	"time"
)

// Metric names emitted by the pool and the dispatcher.
const (
	MetricExecuteDuration    = "loadproxy_execute_duration_seconds"
	MetricExecuteErrors      = "loadproxy_execute_errors_total"
	MetricConnectDuration    = "loadproxy_connect_duration_seconds"
	MetricConnectionsCreated = "loadproxy_connections_created_total"
	MetricConnectionErrors   = "loadproxy_connection_errors_total"
	MetricPoolConnections    = "loadproxy_pool_connections"
	MetricWarmupDuration     = "loadproxy_warmup_duration_seconds"
)

// Status and label values shared by metrics and spans.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusTimeout = "timeout"

	LabelVendor    = "vendor"
	LabelStatus    = "status"
	LabelSlot      = "slot"
	LabelErrorType = "error_type"
)

// Logger receives plain structured log calls. *slog.Logger satisfies it.
//
// Debug level: executed statements with timing
// Info level: warm-up progress, connections created
// Warn level: cleanup problems
// Error level: failed connects and failed queries.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ContextualLogger receives log calls together with the request context,
// so that implementations can correlate them with the active trace. *slog.Logger satisfies it.
type ContextualLogger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// MetricsCollector records durations, counters and gauges keyed by metric name and labels.
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
	RecordValue(metric string, value float64, labels map[string]string)
}

// ContextualMetricsCollector is an optional extension of MetricsCollector.
// When a collector implements it, components pass the request context along.
type ContextualMetricsCollector interface {
	MetricsCollector
	RecordDurationContext(ctx context.Context, metric string, duration time.Duration, labels map[string]string)
	IncrementCounterContext(ctx context.Context, metric string, labels map[string]string)
	RecordValueContext(ctx context.Context, metric string, value float64, labels map[string]string)
}

// SpanContext is an active span that can be annotated before it is finished.
type SpanContext interface {
	SetStatus(status string)
	AddAttribute(key, value string)
}

// TracingCollector starts and finishes spans without tying the core to a tracing backend.
type TracingCollector interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext)
	FinishSpan(spanCtx SpanContext, status string, attrs map[string]string)
}

// RecordDuration records a duration, passing ctx along when the collector supports it.
// A nil collector is a no-op.
func RecordDuration(ctx context.Context, c MetricsCollector, metric string, d time.Duration, labels map[string]string) {
	if c == nil {
		return
	}

	if cc, ok := c.(ContextualMetricsCollector); ok {
		cc.RecordDurationContext(ctx, metric, d, labels)
		return
	}

	c.RecordDuration(metric, d, labels)
}

// IncrementCounter increments a counter, passing ctx along when the collector supports it.
// A nil collector is a no-op.
func IncrementCounter(ctx context.Context, c MetricsCollector, metric string, labels map[string]string) {
	if c == nil {
		return
	}

	if cc, ok := c.(ContextualMetricsCollector); ok {
		cc.IncrementCounterContext(ctx, metric, labels)
		return
	}

	c.IncrementCounter(metric, labels)
}

// RecordValue records a gauge value, passing ctx along when the collector supports it.
// A nil collector is a no-op.
func RecordValue(ctx context.Context, c MetricsCollector, metric string, value float64, labels map[string]string) {
	if c == nil {
		return
	}

	if cc, ok := c.(ContextualMetricsCollector); ok {
		cc.RecordValueContext(ctx, metric, value, labels)
		return
	}

	c.RecordValue(metric, value, labels)
}
