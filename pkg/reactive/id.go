package reactive

import "sync/atomic"

// globalIDCounter is the source of unique IDs for subjects and watchers.
// Watcher IDs double as the scheduler's total order, so they must be
// monotonically increasing and never reused.
var globalIDCounter uint64

// nextID returns the next unique ID for a reactive primitive.
func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}
