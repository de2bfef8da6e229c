package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy"
	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy/oteladapters"
)

func newTracing(t *testing.T) (*oteladapters.TracingCollector, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	return oteladapters.NewTracingCollector(provider.Tracer("loadproxy-test")), exporter
}

func attributeValue(span tracetest.SpanStub, key string) (string, bool) {
	for _, kv := range span.Attributes {
		if kv.Key == attribute.Key(key) {
			return kv.Value.AsString(), true
		}
	}

	return "", false
}

func Test_TracingCollector_SuccessfulSpan(t *testing.T) {
	collector, exporter := newTracing(t)

	ctx, span := collector.StartSpan(context.Background(), "loadproxy.execute", map[string]string{
		"loadproxy.slot": "3",
	})
	assert.True(t, trace.SpanContextFromContext(ctx).IsValid(), "returned context carries the span")

	span.AddAttribute("loadproxy.vendor", "snowflake")
	collector.FinishSpan(span, loadproxy.StatusSuccess, map[string]string{"loadproxy.duration_ms": "12.500"})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	got := spans[0]
	assert.Equal(t, "loadproxy.execute", got.Name)
	assert.Equal(t, codes.Ok, got.Status.Code)

	for key, want := range map[string]string{
		"loadproxy.slot":        "3",
		"loadproxy.vendor":      "snowflake",
		"loadproxy.duration_ms": "12.500",
	} {
		value, found := attributeValue(got, key)
		assert.True(t, found, key)
		assert.Equal(t, want, value, key)
	}
}

func Test_TracingCollector_ErrorStatuses(t *testing.T) {
	testCases := []struct {
		status      string
		code        codes.Code
		description string
	}{
		{status: loadproxy.StatusError, code: codes.Error, description: "query failed"},
		{status: loadproxy.StatusTimeout, code: codes.Error, description: "query timed out"},
		{status: "unknown", code: codes.Unset, description: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.status, func(t *testing.T) {
			collector, exporter := newTracing(t)

			_, span := collector.StartSpan(context.Background(), "loadproxy.execute", nil)
			collector.FinishSpan(span, tc.status, nil)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tc.code, spans[0].Status.Code)
			assert.Equal(t, tc.description, spans[0].Status.Description)
		})
	}
}

type foreignSpan struct{}

func (foreignSpan) SetStatus(string) {}
func (foreignSpan) AddAttribute(string, string) {}

func Test_TracingCollector_IgnoresForeignSpans(t *testing.T) {
	collector, exporter := newTracing(t)

	collector.FinishSpan(foreignSpan{}, loadproxy.StatusSuccess, nil)

	assert.Empty(t, exporter.GetSpans())
}
