package adapters

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// PGXConnAdapter implements DBConn for a single *pgx.Conn.
type PGXConnAdapter struct {
	conn *pgx.Conn
}

// NewPGXConnAdapter wraps an established pgx connection.
func NewPGXConnAdapter(conn *pgx.Conn) *PGXConnAdapter {
	return &PGXConnAdapter{conn: conn}
}

// Query runs query and returns its rows.
func (p *PGXConnAdapter) Query(ctx context.Context, query string) (DBRows, error) {
	rows, err := p.conn.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	return &pgxRows{rows: rows}, nil
}

// Exec runs query without reading rows.
func (p *PGXConnAdapter) Exec(ctx context.Context, query string) error {
	_, err := p.conn.Exec(ctx, query)

	return err
}

// Close terminates the session.
func (p *PGXConnAdapter) Close(ctx context.Context) error {
	return p.conn.Close(ctx)
}

// pgxRows wraps pgx.Rows to implement the DBRows interface.
type pgxRows struct {
	rows pgx.Rows
}

func (p *pgxRows) Next() bool {
	return p.rows.Next()
}

func (p *pgxRows) Err() error {
	return p.rows.Err()
}

// Close releases the rows; pgx reports errors through Err instead.
func (p *pgxRows) Close() error {
	p.rows.Close()
	return nil
}
