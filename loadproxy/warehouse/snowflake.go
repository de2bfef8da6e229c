package warehouse

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/snowflakedb/gosnowflake"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy/warehouse/internal/adapters"
)

const (
	snowflakeDriverName = "snowflake"
	snowflakeLogLevel   = "error"
)

var setSnowflakeLogLevel = func(level string) error {
	return gosnowflake.GetLogger().SetLogLevel(level)
}

// quietSnowflakeDriver lowers the driver's own logging to errors only.
// A failure leaves the driver at its default level and is logged as a warning.
func (c *Connector) quietSnowflakeDriver() {
	if err := setSnowflakeLogLevel(snowflakeLogLevel); err != nil && c.logger != nil {
		c.logger.Warn(logMsgDriverLogLevel, logAttrError, err.Error(), logAttrVendor, string(c.vendor))
	}
}

// DSN renders the gosnowflake data source name. It fails when required fields are missing.
func (c SnowflakeConfig) DSN() (string, error) {
	return gosnowflake.DSN(&gosnowflake.Config{
		Account:   c.Account,
		User:      c.User,
		Password:  c.Password,
		Warehouse: c.Warehouse,
		Database:  c.Database,
		Schema:    c.Schema,
	})
}

func openSnowflake(cfg SnowflakeConfig) openFunc {
	return func(ctx context.Context) (adapters.DBConn, error) {
		dsn, err := cfg.DSN()
		if err != nil {
			return nil, err
		}

		db, err := sqlx.Open(snowflakeDriverName, dsn)
		if err != nil {
			return nil, err
		}

		return adapters.NewSQLXConnAdapter(ctx, db)
	}
}
