package warehouse_test

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy"
	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy/warehouse"
	"github.com/AntonStoeckl/warehouse-loadproxy/testutil/fakepostgres"
)

func Test_NewConnector_CacheDisableStatement_PerVendor(t *testing.T) {
	testCases := []struct {
		vendor    loadproxy.Vendor
		statement string
	}{
		{vendor: loadproxy.VendorFirebolt, statement: "SET enable_result_cache=false"},
		{vendor: loadproxy.VendorSnowflake, statement: "ALTER SESSION SET USE_CACHED_RESULT = FALSE;"},
		{vendor: loadproxy.VendorRedshift, statement: "SET enable_result_cache_for_session TO off;"},
	}

	for _, tc := range testCases {
		t.Run(string(tc.vendor), func(t *testing.T) {
			connector, err := warehouse.NewConnector(tc.vendor, warehouse.Credentials{})
			require.NoError(t, err)

			assert.Equal(t, tc.vendor, connector.Vendor())
			assert.Equal(t, tc.statement, connector.CacheDisableStatement())
			assert.Equal(t, "SELECT 42", connector.ProbeQuery())
			assert.Equal(t, loadproxy.ResultModeFetch, connector.ResultMode())
		})
	}
}

func Test_NewConnector_ShouldFail_WithUnknownVendor(t *testing.T) {
	_, err := warehouse.NewConnector("bigquery", warehouse.Credentials{})

	assert.ErrorIs(t, err, loadproxy.ErrUnknownVendor)
	assert.True(t, loadproxy.IsConfigError(err))
}

func Test_NewConnector_ShouldFail_WithUnknownRedshiftDriver(t *testing.T) {
	credentials := warehouse.Credentials{Redshift: warehouse.RedshiftConfig{Driver: "odbc"}}

	_, err := warehouse.NewConnector(loadproxy.VendorRedshift, credentials)

	assert.ErrorIs(t, err, loadproxy.ErrLoadingConfigFailed)
}

func Test_NewConnector_WithResultMode(t *testing.T) {
	connector, err := warehouse.NewConnector(
		loadproxy.VendorRedshift,
		warehouse.Credentials{},
		warehouse.WithResultMode(loadproxy.ResultModeExecute),
	)
	require.NoError(t, err)
	assert.Equal(t, loadproxy.ResultModeExecute, connector.ResultMode())

	_, err = warehouse.NewConnector(
		loadproxy.VendorRedshift,
		warehouse.Credentials{},
		warehouse.WithResultMode("stream"),
	)
	assert.ErrorIs(t, err, loadproxy.ErrInvalidResultMode)
}

func Test_Connector_Connect_ShouldFail_WithUnresolvedSnowflakeCredentials(t *testing.T) {
	connector, err := warehouse.NewConnector(loadproxy.VendorSnowflake, warehouse.Credentials{})
	require.NoError(t, err)

	_, err = connector.Connect(context.Background())

	assert.ErrorIs(t, err, loadproxy.ErrConnectionFailed)
}

func Test_Connector_Connect_ShouldFail_WhenRedshiftIsUnreachable(t *testing.T) {
	credentials := warehouse.Credentials{Redshift: warehouse.RedshiftConfig{
		Host:     "127.0.0.1",
		Port:     1,
		Database: "dev",
		User:     "bench",
		Password: "secret",
	}}

	for _, driver := range []string{warehouse.RedshiftDriverPGX, warehouse.RedshiftDriverPQ} {
		t.Run(driver, func(t *testing.T) {
			credentials.Redshift.Driver = driver

			connector, err := warehouse.NewConnector(loadproxy.VendorRedshift, credentials)
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			_, err = connector.Connect(ctx)
			assert.ErrorIs(t, err, loadproxy.ErrConnectionFailed)
		})
	}
}

func Test_Connector_Connect_OpensOneRedshiftSession(t *testing.T) {
	for _, driver := range []string{warehouse.RedshiftDriverPGX, warehouse.RedshiftDriverPQ} {
		t.Run(driver, func(t *testing.T) {
			server, err := fakepostgres.NewServer()
			require.NoError(t, err)
			t.Cleanup(func() { _ = server.Close() })

			credentials := warehouse.Credentials{Redshift: warehouse.RedshiftConfig{
				Host:     server.Host(),
				Port:     server.Port(),
				Database: "dev",
				User:     "bench",
				Password: "secret",
				Driver:   driver,
			}}

			connector, err := warehouse.NewConnector(loadproxy.VendorRedshift, credentials)
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			conn, err := connector.Connect(ctx)
			require.NoError(t, err)

			require.NoError(t, conn.Execute(ctx, connector.CacheDisableStatement()))
			require.NoError(t, conn.Execute(ctx, connector.ProbeQuery()))

			server.FailQuery("SELECT * FORM lineitem", `syntax error at or near "FORM"`)
			err = conn.Execute(ctx, "SELECT * FORM lineitem")
			assert.ErrorIs(t, err, loadproxy.ErrQueryFailed)

			assert.Equal(t, 1, server.Sessions())
			assert.Equal(t,
				[]string{connector.CacheDisableStatement(), connector.ProbeQuery(), "SELECT * FORM lineitem"},
				server.Queries())

			require.NoError(t, conn.Close())
			assert.Eventually(t, func() bool { return server.ActiveSessions() == 0 }, time.Second, 5*time.Millisecond)
		})
	}
}

func Test_FireboltConfig_DSN(t *testing.T) {
	cfg := warehouse.FireboltConfig{
		ClientID:     "id",
		ClientSecret: "s3cr&t",
		EngineName:   "bench_engine",
		AccountName:  "acme",
		Database:     "tpch",
	}

	dsn := cfg.DSN()
	require.True(t, strings.HasPrefix(dsn, "firebolt:///tpch?"), dsn)

	parsed, err := url.Parse(dsn)
	require.NoError(t, err)

	query := parsed.Query()
	assert.Equal(t, "acme", query.Get("account_name"))
	assert.Equal(t, "id", query.Get("client_id"))
	assert.Equal(t, "s3cr&t", query.Get("client_secret"))
	assert.Equal(t, "bench_engine", query.Get("engine"))
}

func Test_RedshiftConfig_ConnString(t *testing.T) {
	cfg := warehouse.RedshiftConfig{
		Host:     "cluster.example.com",
		Database: "dev",
		User:     "bench",
		Password: "p@ss",
	}

	parsed, err := url.Parse(cfg.ConnString())
	require.NoError(t, err)

	assert.Equal(t, "postgres", parsed.Scheme)
	assert.Equal(t, "cluster.example.com:5439", parsed.Host, "default port")
	assert.Equal(t, "/dev", parsed.Path)
	assert.Equal(t, "bench", parsed.User.Username())
	password, _ := parsed.User.Password()
	assert.Equal(t, "p@ss", password)
	assert.Equal(t, "disable", parsed.Query().Get("sslmode"))

	cfg.Port = 5440
	cfg.SSL = true
	parsed, err = url.Parse(cfg.ConnString())
	require.NoError(t, err)

	assert.Equal(t, "cluster.example.com:5440", parsed.Host)
	assert.Equal(t, "require", parsed.Query().Get("sslmode"))
}
