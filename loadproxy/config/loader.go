package config

import (
	"os"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy"
)

const (
	DefaultConfigPath = "config/k6config.json"
	DefaultEnvFile    = ".env"
)

// Loader reads configuration sources. The zero value is not usable; use NewLoader.
type Loader struct {
	lookupEnv func(key string) (string, bool)
	logger    loadproxy.Logger
}

// Option defines a functional option for configuring a Loader.
type Option func(*Loader) error

// WithLogger sets the logger for the Loader.
//
// Info level: which credentials source is used, loaded files
// Warn level: unreadable optional files.
func WithLogger(logger loadproxy.Logger) Option {
	return func(l *Loader) error {
		l.logger = logger
		return nil
	}
}

// WithLookupEnv replaces os.LookupEnv as the source of environment variables.
func WithLookupEnv(lookup func(key string) (string, bool)) Option {
	return func(l *Loader) error {
		if lookup != nil {
			l.lookupEnv = lookup
		}

		return nil
	}
}

// NewLoader creates a Loader reading the process environment.
func NewLoader(options ...Option) (*Loader, error) {
	l := &Loader{lookupEnv: os.LookupEnv}

	for _, option := range options {
		if err := option(l); err != nil {
			return nil, err
		}
	}

	return l, nil
}

// env returns the value of key; an empty value counts as unset.
func (l *Loader) env(key string) (string, bool) {
	value, ok := l.lookupEnv(key)
	if !ok || value == "" {
		return "", false
	}

	return value, true
}

func (l *Loader) logInfo(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Info(msg, args...)
	}
}

func (l *Loader) logWarn(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Warn(msg, args...)
	}
}
