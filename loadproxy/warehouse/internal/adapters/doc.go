// Package adapters wraps a single dedicated warehouse session behind one DBConn interface.
//
// Three session kinds are supported: a *pgx.Conn, a pinned *sql.Conn and a pinned *sqlx.Conn.
// The database/sql based adapters own their *sql.DB / *sqlx.DB handle and close it together
// with the pinned connection, so one DBConn is exactly one server session.
package adapters
