package atom

import "sync/atomic"

// globalIDCounter is the source of unique IDs for atom configurations and
// subscriptions. Atomic operations keep ID generation lock-free.
var globalIDCounter uint64

// nextID returns the next unique ID. IDs are monotonically increasing and
// never reused, so creation order is recoverable by comparing IDs.
func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}
