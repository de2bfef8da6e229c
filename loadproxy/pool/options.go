package pool

import (
	"errors"
	"time"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy"
)

var errNegativeConnectTimeout = errors.New("connect timeout must not be negative")

// Option defines a functional option for configuring a Pool.
type Option func(*Pool) error

// WithLogger sets the logger for the Pool.
//
// Info level: warm-up progress and created connections
// Warn level: close failures
// Error level: connect, tuning and probe failures.
func WithLogger(logger loadproxy.Logger) Option {
	return func(p *Pool) error {
		p.logger = logger
		return nil
	}
}

// WithContextualLogger sets a logger that also receives the caller's context.
func WithContextualLogger(logger loadproxy.ContextualLogger) Option {
	return func(p *Pool) error {
		p.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for connect durations, created connections and warm-up time.
func WithMetrics(collector loadproxy.MetricsCollector) Option {
	return func(p *Pool) error {
		p.metricsCollector = collector
		return nil
	}
}

// WithConnectTimeout bounds every connect, tuning statement and probe query. Zero disables the bound.
func WithConnectTimeout(timeout time.Duration) Option {
	return func(p *Pool) error {
		if timeout < 0 {
			return errors.Join(loadproxy.ErrLoadingConfigFailed, errNegativeConnectTimeout)
		}

		p.connectTimeout = timeout

		return nil
	}
}
