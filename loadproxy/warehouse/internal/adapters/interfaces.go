package adapters

import "context"

// DBConn is one warehouse session.
type DBConn interface {
	Query(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) error
	Close(ctx context.Context) error
}

// DBRows is a result set that can be drained without decoding.
type DBRows interface {
	Next() bool
	Err() error
	Close() error
}
