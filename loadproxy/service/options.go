package service

import (
	"errors"
	"net"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy"
	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy/config"
	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy/warehouse"
)

// ConnectorFactory builds the vendor connector from the resolved configuration.
type ConnectorFactory func(settings config.Settings, credentials warehouse.Credentials, logger loadproxy.Logger) (loadproxy.Connector, error)

// ListenFunc binds the HTTP listener. net.Listen satisfies it.
type ListenFunc func(network, address string) (net.Listener, error)

// Option defines a functional option for configuring a Service.
type Option func(*Service) error

// WithConfigPath sets the run configuration file. Defaults to config.DefaultConfigPath.
func WithConfigPath(path string) Option {
	return func(s *Service) error {
		s.configPath = path
		return nil
	}
}

// WithCredentialsPath sets the legacy credentials file. Empty means environment only.
func WithCredentialsPath(path string) Option {
	return func(s *Service) error {
		s.credentialsPath = path
		return nil
	}
}

// WithEnvFile sets the .env file. Defaults to config.DefaultEnvFile; empty skips it.
func WithEnvFile(path string) Option {
	return func(s *Service) error {
		s.envFile = path
		return nil
	}
}

// WithPort sets the TCP port to listen on. Defaults to 3000.
func WithPort(port int) Option {
	return func(s *Service) error {
		if port < 0 || port > 65535 {
			return errors.Join(loadproxy.ErrLoadingConfigFailed, errors.New("port out of range"))
		}

		s.port = port

		return nil
	}
}

// WithListenFunc replaces net.Listen.
func WithListenFunc(listen ListenFunc) Option {
	return func(s *Service) error {
		if listen != nil {
			s.listen = listen
		}

		return nil
	}
}

// WithConnectorFactory replaces the warehouse connector.
func WithConnectorFactory(factory ConnectorFactory) Option {
	return func(s *Service) error {
		if factory != nil {
			s.newConnector = factory
		}

		return nil
	}
}

// WithLookupEnv replaces os.LookupEnv for credential variables.
func WithLookupEnv(lookup func(key string) (string, bool)) Option {
	return func(s *Service) error {
		s.lookupEnv = lookup
		return nil
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger loadproxy.Logger) Option {
	return func(s *Service) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogger sets the context-aware logger handed to the pool, dispatcher and handler.
func WithContextualLogger(logger loadproxy.ContextualLogger) Option {
	return func(s *Service) error {
		s.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector handed to the pool and the dispatcher.
func WithMetrics(collector loadproxy.MetricsCollector) Option {
	return func(s *Service) error {
		s.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector handed to the dispatcher.
func WithTracing(collector loadproxy.TracingCollector) Option {
	return func(s *Service) error {
		s.tracingCollector = collector
		return nil
	}
}
