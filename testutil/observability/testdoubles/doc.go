// Package testdoubles provides spies for the loadproxy observability interfaces
// and a capturing slog.Handler, used by the pool, dispatcher and HTTP tests.
package testdoubles
