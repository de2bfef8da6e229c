// Package fakepostgres is an in-process server speaking enough of the Postgres wire protocol
// for pgx and lib/pq sessions: trust authentication and simple-protocol queries.
// SELECT statements return one int4 row, every other statement completes without rows.
package fakepostgres
