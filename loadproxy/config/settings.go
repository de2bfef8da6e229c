package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy"
)

const (
	defaultQueryTimeoutSeconds   = 60
	defaultConnectTimeoutSeconds = 30
	logMsgConfigMissing          = "config file not found, using defaults"
	logMsgConfigLoaded           = "config file loaded"
	logAttrPath                  = "path"
	logAttrError                 = "error"
)

// fileSettings is the on-disk shape of the run configuration.
type fileSettings struct {
	Vendor                string `json:"vendor" yaml:"vendor"`
	ConnectionsPerThread  int    `json:"connections_per_thread" yaml:"connections_per_thread"`
	ResultMode            string `json:"result_mode" yaml:"result_mode"`
	QueryTimeoutSeconds   *int   `json:"query_timeout_seconds" yaml:"query_timeout_seconds"`
	ConnectTimeoutSeconds *int   `json:"connect_timeout_seconds" yaml:"connect_timeout_seconds"`
}

// Settings is the resolved run configuration.
type Settings struct {
	Vendor         loadproxy.Vendor
	PoolSize       int
	ResultMode     loadproxy.ResultMode
	QueryTimeout   time.Duration
	ConnectTimeout time.Duration
}

// DefaultSettings returns the configuration used when no file is present.
func DefaultSettings() Settings {
	return Settings{
		Vendor:         loadproxy.DefaultVendor,
		PoolSize:       loadproxy.DefaultPoolSize,
		ResultMode:     loadproxy.ResultModeFetch,
		QueryTimeout:   defaultQueryTimeoutSeconds * time.Second,
		ConnectTimeout: defaultConnectTimeoutSeconds * time.Second,
	}
}

// Settings reads the run configuration at path. Files ending in .yaml or .yml are YAML, anything else JSON.
// A missing file yields DefaultSettings; an unreadable or invalid one fails with a config error.
func (l *Loader) Settings(path string) (Settings, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		l.logInfo(logMsgConfigMissing, logAttrPath, path)
		return DefaultSettings(), nil
	}

	if err != nil {
		return Settings{}, errors.Join(loadproxy.ErrLoadingConfigFailed, err)
	}

	var file fileSettings

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &file)
	default:
		err = jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(raw, &file)
	}

	if err != nil {
		return Settings{}, errors.Join(loadproxy.ErrLoadingConfigFailed, fmt.Errorf("parsing %s: %w", path, err))
	}

	settings, err := resolve(file)
	if err != nil {
		return Settings{}, err
	}

	l.logInfo(logMsgConfigLoaded, logAttrPath, path)

	return settings, nil
}

func resolve(file fileSettings) (Settings, error) {
	settings := DefaultSettings()

	if file.Vendor != "" {
		vendor, err := loadproxy.ParseVendor(file.Vendor)
		if err != nil {
			return Settings{}, err
		}

		settings.Vendor = vendor
	}

	switch {
	case file.ConnectionsPerThread < 0:
		return Settings{}, errors.Join(
			loadproxy.ErrInvalidPoolSize,
			fmt.Errorf("connections_per_thread: %d", file.ConnectionsPerThread),
		)
	case file.ConnectionsPerThread > 0:
		settings.PoolSize = file.ConnectionsPerThread
	}

	mode, err := loadproxy.ParseResultMode(file.ResultMode)
	if err != nil {
		return Settings{}, err
	}

	settings.ResultMode = mode

	if settings.QueryTimeout, err = seconds("query_timeout_seconds", file.QueryTimeoutSeconds, settings.QueryTimeout); err != nil {
		return Settings{}, err
	}

	if settings.ConnectTimeout, err = seconds("connect_timeout_seconds", file.ConnectTimeoutSeconds, settings.ConnectTimeout); err != nil {
		return Settings{}, err
	}

	return settings, nil
}

// seconds converts an optional seconds field; absent keeps fallback, 0 disables the bound.
func seconds(field string, value *int, fallback time.Duration) (time.Duration, error) {
	if value == nil {
		return fallback, nil
	}

	if *value < 0 {
		return 0, errors.Join(loadproxy.ErrLoadingConfigFailed, fmt.Errorf("%s must not be negative: %d", field, *value))
	}

	return time.Duration(*value) * time.Second, nil
}
