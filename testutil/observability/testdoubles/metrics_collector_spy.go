package testdoubles

import (
	"maps"
	"sync"
	"time"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy"
)

// MetricRecord is one captured metrics call.
type MetricRecord struct {
	Kind     string // duration, counter or value
	Metric   string
	Duration time.Duration
	Value    float64
	Labels   map[string]string
}

// MetricsCollectorSpy captures loadproxy.MetricsCollector calls.
type MetricsCollectorSpy struct {
	mu      sync.Mutex
	records []MetricRecord
}

// NewMetricsCollectorSpy creates an empty MetricsCollectorSpy.
func NewMetricsCollectorSpy() *MetricsCollectorSpy {
	return &MetricsCollectorSpy{records: make([]MetricRecord, 0)}
}

// RecordDuration implements loadproxy.MetricsCollector.
func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.add(MetricRecord{Kind: "duration", Metric: metric, Duration: duration, Labels: maps.Clone(labels)})
}

// IncrementCounter implements loadproxy.MetricsCollector.
func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.add(MetricRecord{Kind: "counter", Metric: metric, Labels: maps.Clone(labels)})
}

// RecordValue implements loadproxy.MetricsCollector.
func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.add(MetricRecord{Kind: "value", Metric: metric, Value: value, Labels: maps.Clone(labels)})
}

func (s *MetricsCollectorSpy) add(record MetricRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record)
}

// Records returns every captured record for metric.
func (s *MetricsCollectorSpy) Records(metric string) []MetricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []MetricRecord
	for _, record := range s.records {
		if record.Metric == metric {
			records = append(records, record)
		}
	}

	return records
}

// Count returns how many records for metric carry all the given labels.
func (s *MetricsCollectorSpy) Count(metric string, labels map[string]string) int {
	count := 0

	for _, record := range s.Records(metric) {
		matches := true
		for key, value := range labels {
			if record.Labels[key] != value {
				matches = false
				break
			}
		}

		if matches {
			count++
		}
	}

	return count
}

var _ loadproxy.MetricsCollector = (*MetricsCollectorSpy)(nil)
