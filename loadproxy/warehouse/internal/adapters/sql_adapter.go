package adapters

import (
	"context"
	"database/sql"
	"errors"
)

// SQLConnAdapter implements DBConn for a *sql.Conn pinned out of its own *sql.DB.
type SQLConnAdapter struct {
	db   *sql.DB
	conn *sql.Conn
}

// NewSQLConnAdapter pins one connection out of db. The adapter owns db from now on.
func NewSQLConnAdapter(ctx context.Context, db *sql.DB) (*SQLConnAdapter, error) {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}

	if pingErr := conn.PingContext(ctx); pingErr != nil {
		return nil, errors.Join(pingErr, conn.Close(), db.Close())
	}

	return &SQLConnAdapter{db: db, conn: conn}, nil
}

// Query runs query on the pinned connection.
func (s *SQLConnAdapter) Query(ctx context.Context, query string) (DBRows, error) {
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	return &stdRows{rows: rows}, nil
}

// Exec runs query on the pinned connection without reading rows.
func (s *SQLConnAdapter) Exec(ctx context.Context, query string) error {
	_, err := s.conn.ExecContext(ctx, query)

	return err
}

// Close returns the pinned connection and closes the owning handle.
func (s *SQLConnAdapter) Close(_ context.Context) error {
	return errors.Join(s.conn.Close(), s.db.Close())
}
