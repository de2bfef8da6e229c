// Package warehouse provides the vendor adapters of the load proxy.
//
// Each supported vendor gets one loadproxy.Connector that opens dedicated sessions
// through the vendor's Go driver and reports the statement that disables result caching:
//   - Firebolt: firebolt-go-sdk through sqlx, "SET enable_result_cache=false"
//   - Snowflake: gosnowflake through sqlx, "ALTER SESSION SET USE_CACHED_RESULT = FALSE;"
//   - Redshift: pgx (default) or lib/pq, "SET enable_result_cache_for_session TO off;"
//
// A session executes one statement at a time. None of the three drivers allows
// concurrent statements on one session, so a session serializes callers itself.
//
// Usage examples:
//
//	connector, err := warehouse.NewConnector(loadproxy.VendorRedshift, credentials,
//		warehouse.WithResultMode(loadproxy.ResultModeFetch),
//		warehouse.WithLogger(logger),
//	)
//
//	conn, err := connector.Connect(ctx)
//	err = conn.Execute(ctx, connector.CacheDisableStatement())
//	err = conn.Execute(ctx, "SELECT count(*) FROM lineitem")
package warehouse
