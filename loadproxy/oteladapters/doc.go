// Package oteladapters implements the loadproxy observability interfaces on top of OpenTelemetry.
//
// MetricsCollector maps durations to histograms, counters to Int64Counters and values to gauges.
// TracingCollector wraps an otel Tracer. SlogBridgeLogger and OTelLogger are contextual loggers
// whose records carry the active trace and span ids.
package oteladapters
