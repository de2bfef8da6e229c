package adapters

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
)

// SQLXConnAdapter implements DBConn for a *sqlx.Conn pinned out of its own *sqlx.DB.
type SQLXConnAdapter struct {
	db   *sqlx.DB
	conn *sqlx.Conn
}

// NewSQLXConnAdapter pins one connection out of db. The adapter owns db from now on.
func NewSQLXConnAdapter(ctx context.Context, db *sqlx.DB) (*SQLXConnAdapter, error) {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	conn, err := db.Connx(ctx)
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}

	if pingErr := conn.PingContext(ctx); pingErr != nil {
		return nil, errors.Join(pingErr, conn.Close(), db.Close())
	}

	return &SQLXConnAdapter{db: db, conn: conn}, nil
}

// Query runs query on the pinned connection and returns wrapped rows.
func (s *SQLXConnAdapter) Query(ctx context.Context, query string) (DBRows, error) {
	rows, err := s.conn.QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}

	return &stdRows{rows: rows.Rows}, nil
}

// Exec runs query on the pinned connection without reading rows.
func (s *SQLXConnAdapter) Exec(ctx context.Context, query string) error {
	_, err := s.conn.ExecContext(ctx, query)

	return err
}

// Close returns the pinned connection and closes the owning handle.
func (s *SQLXConnAdapter) Close(_ context.Context) error {
	return errors.Join(s.conn.Close(), s.db.Close())
}
