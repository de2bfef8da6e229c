package warehouse

import (
	"context"
	"errors"
	"time"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy"
	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy/warehouse/internal/adapters"
)

const (
	logMsgConnectFailed   = "warehouse connect failed"
	logMsgConnected       = "warehouse session opened"
	logMsgSQLExecuted     = "executed sql"
	logMsgQueryFailed     = "warehouse query failed"
	logMsgCloseFailed     = "closing warehouse session failed"
	logMsgDriverLogLevel  = "lowering driver log level failed"
	logAttrError          = "error"
	logAttrVendor         = "vendor"
	logAttrQuery          = "query"
	logAttrDurationMS     = "duration_ms"
	logAttrRowsFetched    = "rows_fetched"
	logAttrResultMode     = "result_mode"
	defaultCloseTimeout   = 10 * time.Second
	cacheDisableFirebolt  = "SET enable_result_cache=false"
	cacheDisableSnowflake = "ALTER SESSION SET USE_CACHED_RESULT = FALSE;"
	cacheDisableRedshift  = "SET enable_result_cache_for_session TO off;"
)

type openFunc func(ctx context.Context) (adapters.DBConn, error)

// Connector implements loadproxy.Connector for one vendor.
type Connector struct {
	vendor       loadproxy.Vendor
	cacheDisable string
	probeQuery   string
	open         openFunc
	resultMode   loadproxy.ResultMode
	logger       loadproxy.Logger
}

// Option defines a functional option for configuring a Connector.
type Option func(*Connector) error

// WithResultMode selects whether sessions fetch-and-discard rows or execute only.
func WithResultMode(mode loadproxy.ResultMode) Option {
	return func(c *Connector) error {
		parsed, err := loadproxy.ParseResultMode(string(mode))
		if err != nil {
			return err
		}

		c.resultMode = parsed

		return nil
	}
}

// WithLogger sets the logger for the Connector and the sessions it opens.
//
// Debug level: executed statements with timing
// Info level: opened sessions
// Warn level: close failures
// Error level: failed connects and failed statements.
func WithLogger(logger loadproxy.Logger) Option {
	return func(c *Connector) error {
		c.logger = logger
		return nil
	}
}

// NewConnector selects the adapter for vendor. An unknown vendor fails with loadproxy.ErrUnknownVendor.
func NewConnector(vendor loadproxy.Vendor, credentials Credentials, options ...Option) (*Connector, error) {
	parsed, err := loadproxy.ParseVendor(string(vendor))
	if err != nil {
		return nil, err
	}

	c := &Connector{
		vendor:     parsed,
		resultMode: loadproxy.ResultModeFetch,
	}

	switch parsed {
	case loadproxy.VendorFirebolt:
		c.cacheDisable = cacheDisableFirebolt
		c.open = openFirebolt(credentials.Firebolt)

	case loadproxy.VendorSnowflake:
		c.cacheDisable = cacheDisableSnowflake
		c.open = openSnowflake(credentials.Snowflake)

	case loadproxy.VendorRedshift:
		open, redshiftErr := openRedshift(credentials.Redshift)
		if redshiftErr != nil {
			return nil, redshiftErr
		}

		c.cacheDisable = cacheDisableRedshift
		c.open = open
	}

	probe, probeErr := buildProbeQuery(parsed)
	if probeErr != nil {
		return nil, probeErr
	}

	c.probeQuery = probe

	for _, option := range options {
		if optionErr := option(c); optionErr != nil {
			return nil, optionErr
		}
	}

	if parsed == loadproxy.VendorSnowflake {
		c.quietSnowflakeDriver()
	}

	return c, nil
}

// Vendor implements loadproxy.Connector.
func (c *Connector) Vendor() loadproxy.Vendor {
	return c.vendor
}

// CacheDisableStatement implements loadproxy.Connector.
func (c *Connector) CacheDisableStatement() string {
	return c.cacheDisable
}

// ProbeQuery implements loadproxy.Connector.
func (c *Connector) ProbeQuery() string {
	return c.probeQuery
}

// ResultMode returns the configured result mode.
func (c *Connector) ResultMode() loadproxy.ResultMode {
	return c.resultMode
}

// Connect opens one dedicated session. Failures are wrapped in loadproxy.ErrConnectionFailed.
func (c *Connector) Connect(ctx context.Context) (loadproxy.Conn, error) {
	db, err := c.open(ctx)
	if err != nil {
		c.logError(logMsgConnectFailed, err, logAttrVendor, string(c.vendor))

		return nil, errors.Join(loadproxy.ErrConnectionFailed, err)
	}

	if c.logger != nil {
		c.logger.Info(logMsgConnected, logAttrVendor, string(c.vendor), logAttrResultMode, string(c.resultMode))
	}

	return newSession(db, c.vendor, c.resultMode, c.logger), nil
}

func (c *Connector) logError(message string, err error, args ...any) {
	if c.logger != nil {
		allArgs := []any{logAttrError, err.Error()}
		allArgs = append(allArgs, args...)
		c.logger.Error(message, allArgs...)
	}
}

var _ loadproxy.Connector = (*Connector)(nil)
