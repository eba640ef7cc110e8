package scheduler

import "sync/atomic"

// cycleLock provides non-blocking lock semantics using atomic
// operations, keeping the daemon loop and manual scans from running
// cycles concurrently.
type cycleLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking.
// Returns true if the lock was successfully acquired, false otherwise.
func (l *cycleLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock.
// Must only be called by the goroutine that successfully acquired the lock.
func (l *cycleLock) Release() {
	l.state.Store(0)
}
