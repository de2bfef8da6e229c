// Package loadproxy provides the core abstractions of the warehouse load proxy:
// a server that maps load-test virtual users onto a fixed pool of long-lived
// warehouse connections and executes their queries, discarding the results.
//
// This package defines the types shared by the pool, dispatcher, vendor adapters
// and HTTP layer, the sentinel error taxonomy, and the dependency-free
// observability interfaces.
//
// Key types:
//   - WorkerID: the load-test virtual user id, used only as a hash key
//   - Slot: a pool index in [1, N], plus ProbeSlot for the warm-up probe
//   - QueryRequest: an inbound {query, vuID} pair
//   - Connector / Conn: the uniform vendor capability {connect, execute}
//
// Common usage pattern:
//
//	slot := loadproxy.SlotFor(request.WorkerID(), poolSize)
//	conn, err := pool.Get(slot)
//	if err != nil {
//		// ErrPoolNotReady
//	}
//
//	err = conn.Execute(ctx, request.Query)
package loadproxy
