package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	_ "github.com/lib/pq" // postgres driver

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy"
	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy/warehouse/internal/adapters"
)

const (
	pqDriverName      = "postgres"
	sslModeRequire    = "require"
	sslModeDisable    = "disable"
	postgresURLScheme = "postgres"
)

// ConnString renders a postgres URL for the cluster.
// sslmode=require encrypts without verifying the server certificate.
func (c RedshiftConfig) ConnString() string {
	port := c.Port
	if port == 0 {
		port = defaultRedshiftPort
	}

	sslMode := sslModeDisable
	if c.SSL {
		sslMode = sslModeRequire
	}

	u := url.URL{
		Scheme:   postgresURLScheme,
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
	}

	return u.String()
}

func openRedshift(cfg RedshiftConfig) (openFunc, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", RedshiftDriverPGX:
		return openRedshiftPGX(cfg), nil

	case RedshiftDriverPQ:
		return openRedshiftPQ(cfg), nil

	default:
		return nil, errors.Join(
			loadproxy.ErrLoadingConfigFailed,
			fmt.Errorf("unknown redshift driver %q, use %q or %q", cfg.Driver, RedshiftDriverPGX, RedshiftDriverPQ),
		)
	}
}

func openRedshiftPGX(cfg RedshiftConfig) openFunc {
	return func(ctx context.Context) (adapters.DBConn, error) {
		connConfig, err := pgx.ParseConfig(cfg.ConnString())
		if err != nil {
			return nil, err
		}

		// Sessions run without server-side prepared statements.
		connConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

		conn, err := pgx.ConnectConfig(ctx, connConfig)
		if err != nil {
			return nil, err
		}

		return adapters.NewPGXConnAdapter(conn), nil
	}
}

func openRedshiftPQ(cfg RedshiftConfig) openFunc {
	return func(ctx context.Context) (adapters.DBConn, error) {
		db, err := sql.Open(pqDriverName, cfg.ConnString())
		if err != nil {
			return nil, err
		}

		return adapters.NewSQLConnAdapter(ctx, db)
	}
}
