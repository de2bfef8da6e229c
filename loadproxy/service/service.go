package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy"
	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy/config"
	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy/dispatch"
	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy/httpapi"
	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy/pool"
	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy/warehouse"
)

const (
	DefaultPort           = 3000
	shutdownTimeout       = 10 * time.Second
	readHeaderTimeout     = 10 * time.Second
	logMsgPreInitializing = "pre-initializing connections"
	logMsgListening       = "server listening"
	logMsgShuttingDown    = "shutting down"
	logMsgStopped         = "server stopped"
	logAttrVendor         = "vendor"
	logAttrConnections    = "connections"
	logAttrAddress        = "address"
	logAttrResultMode     = "result_mode"
)

// Service wires configuration, pool, dispatcher and HTTP handler.
type Service struct {
	configPath      string
	credentialsPath string
	envFile         string
	port            int
	listen          ListenFunc
	newConnector    ConnectorFactory
	lookupEnv       func(key string) (string, bool)

	logger           loadproxy.Logger
	contextualLogger loadproxy.ContextualLogger
	metricsCollector loadproxy.MetricsCollector
	tracingCollector loadproxy.TracingCollector
}

// New creates a Service with the given options applied over the defaults.
func New(options ...Option) (*Service, error) {
	s := &Service{
		configPath:   config.DefaultConfigPath,
		envFile:      config.DefaultEnvFile,
		port:         DefaultPort,
		listen:       net.Listen,
		newConnector: newWarehouseConnector,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Run loads the configuration, warms up the pool and serves HTTP until ctx is cancelled.
// Configuration and warm-up errors are returned before anything is bound.
// A cancelled ctx leads to a graceful shutdown and a nil error.
func (s *Service) Run(ctx context.Context) error {
	p, settings, err := s.prepare(ctx)
	if err != nil {
		return err
	}

	handler, err := s.handler(p, settings.QueryTimeout)
	if err != nil {
		return errors.Join(err, p.Close())
	}

	listener, err := s.listen("tcp", ":"+strconv.Itoa(s.port))
	if err != nil {
		return errors.Join(err, p.Close())
	}

	return s.serve(ctx, listener, handler, p)
}

func (s *Service) prepare(ctx context.Context) (*pool.Pool, config.Settings, error) {
	loaderOptions := []config.Option{config.WithLookupEnv(s.lookupEnv)}
	if s.logger != nil {
		loaderOptions = append(loaderOptions, config.WithLogger(s.logger))
	}

	loader, err := config.NewLoader(loaderOptions...)
	if err != nil {
		return nil, config.Settings{}, err
	}

	if s.envFile != "" {
		if err = loader.DotEnv(s.envFile); err != nil {
			return nil, config.Settings{}, err
		}
	}

	settings, err := loader.Settings(s.configPath)
	if err != nil {
		return nil, config.Settings{}, err
	}

	credentials, err := loader.Credentials(s.credentialsPath)
	if err != nil {
		return nil, config.Settings{}, err
	}

	connector, err := s.newConnector(settings, credentials, s.logger)
	if err != nil {
		return nil, config.Settings{}, err
	}

	p, err := pool.New(connector, settings.PoolSize,
		pool.WithLogger(s.logger),
		pool.WithContextualLogger(s.contextualLogger),
		pool.WithMetrics(s.metricsCollector),
		pool.WithConnectTimeout(settings.ConnectTimeout),
	)
	if err != nil {
		return nil, config.Settings{}, err
	}

	s.logInfo(logMsgPreInitializing,
		logAttrVendor, string(settings.Vendor),
		logAttrConnections, p.Size(),
		logAttrResultMode, string(settings.ResultMode))

	if err = p.Warmup(ctx); err != nil {
		return nil, config.Settings{}, errors.Join(err, p.Close())
	}

	return p, settings, nil
}

func (s *Service) handler(p *pool.Pool, queryTimeout time.Duration) (http.Handler, error) {
	dispatcher, err := dispatch.New(p,
		dispatch.WithQueryTimeout(queryTimeout),
		dispatch.WithLogger(s.logger),
		dispatch.WithContextualLogger(s.contextualLogger),
		dispatch.WithMetrics(s.metricsCollector),
		dispatch.WithTracing(s.tracingCollector),
	)
	if err != nil {
		return nil, err
	}

	return httpapi.NewHandler(dispatcher, p,
		httpapi.WithLogger(s.logger),
		httpapi.WithContextualLogger(s.contextualLogger),
	)
}

func (s *Service) serve(ctx context.Context, listener net.Listener, handler http.Handler, p *pool.Pool) error {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(listener)
	}()

	s.logInfo(logMsgListening,
		logAttrAddress, listener.Addr().String(),
		logAttrVendor, string(p.Vendor()),
		logAttrConnections, p.Size())

	var err error

	select {
	case err = <-serveErr:
	case <-ctx.Done():
		s.logInfo(logMsgShuttingDown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err = server.Shutdown(shutdownCtx)
		<-serveErr
	}

	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}

	err = errors.Join(err, p.Close())
	s.logInfo(logMsgStopped)

	return err
}

func (s *Service) logInfo(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func newWarehouseConnector(
	settings config.Settings,
	credentials warehouse.Credentials,
	logger loadproxy.Logger,
) (loadproxy.Connector, error) {
	options := []warehouse.Option{warehouse.WithResultMode(settings.ResultMode)}
	if logger != nil {
		options = append(options, warehouse.WithLogger(logger))
	}

	return warehouse.NewConnector(settings.Vendor, credentials, options...)
}
