package testdoubles

import (
	"context"
	"maps"
	"sync"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy"
)

// SpySpanContext records status and attributes set on a span.
type SpySpanContext struct {
	mu         sync.Mutex
	status     string
	attributes map[string]string
}

// SetStatus implements loadproxy.SpanContext.
func (c *SpySpanContext) SetStatus(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status = status
}

// AddAttribute implements loadproxy.SpanContext.
func (c *SpySpanContext) AddAttribute(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.attributes[key] = value
}

// SpanRecord is one captured span.
type SpanRecord struct {
	Name            string
	StartAttributes map[string]string
	Status          string
	EndAttributes   map[string]string
	Finished        bool

	span *SpySpanContext
}

// TracingCollectorSpy captures loadproxy.TracingCollector calls.
type TracingCollectorSpy struct {
	mu    sync.Mutex
	spans []*SpanRecord
}

// NewTracingCollectorSpy creates an empty TracingCollectorSpy.
func NewTracingCollectorSpy() *TracingCollectorSpy {
	return &TracingCollectorSpy{}
}

// StartSpan implements loadproxy.TracingCollector.
func (s *TracingCollectorSpy) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, loadproxy.SpanContext) {
	s.mu.Lock()
	defer s.mu.Unlock()

	span := &SpySpanContext{attributes: make(map[string]string)}
	s.spans = append(s.spans, &SpanRecord{Name: name, StartAttributes: maps.Clone(attrs), span: span})

	return ctx, span
}

// FinishSpan implements loadproxy.TracingCollector.
func (s *TracingCollectorSpy) FinishSpan(spanCtx loadproxy.SpanContext, status string, attrs map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.spans {
		if record.span == spanCtx {
			record.Status = status
			record.EndAttributes = maps.Clone(attrs)
			record.Finished = true

			return
		}
	}
}

// Spans returns copies of every captured span named name.
func (s *TracingCollectorSpy) Spans(name string) []SpanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var spans []SpanRecord
	for _, record := range s.spans {
		if record.Name == name {
			spans = append(spans, *record)
		}
	}

	return spans
}

var _ loadproxy.TracingCollector = (*TracingCollectorSpy)(nil)
