package loadproxy

// WorkerID identifies a logical load-test actor ("virtual user").
// It is not guaranteed to be small or contiguous.
type WorkerID = int64

// Slot is an index into the connection pool.
// Regular slots are in [1, N]; ProbeSlot is reserved for the warm-up probe connection.
type Slot = int

const (
	// ProbeSlot holds the connection used to validate credentials during warm-up.
	// It is kept alive but never addressed by request traffic.
	ProbeSlot Slot = -1

	// DefaultPoolSize is the number of regular slots when none is configured.
	DefaultPoolSize = 10
)

// SlotFor maps a worker to its pool slot: (w mod n) + 1.
// The modulo is non-negative, so the result is in [1, n] for every w, also negative ones.
// A pool size below 1 is treated as 1.
func SlotFor(w WorkerID, n int) Slot {
	if n < 1 {
		n = 1
	}

	m := w % int64(n)
	if m < 0 {
		m += int64(n)
	}

	return Slot(m) + 1
}
