// Package pool keeps one dedicated warehouse connection per slot for the life of the process.
//
// A Pool is populated once by Warmup: first the probe connection, then slots 1..N in order.
// After warm-up the slot map is only read; Get never creates a connection.
package pool
