package internal

import (
	"runtime"
	"sync/atomic"
)

// SpinLock is a sync.Locker that busy-waits with exponential backoff.
// The zero value is unlocked.
type SpinLock struct {
	state atomic.Int32
}

const maxBackoff = 16

// TryLock acquires the lock if it is free and reports whether it did.
func (sl *SpinLock) TryLock() bool {
	return sl.state.CompareAndSwap(0, 1)
}

func (sl *SpinLock) Lock() {
	backoff := 1
	for !sl.TryLock() {
		// see https://en.wikipedia.org/wiki/Exponential_backoff
		for i := 0; i < backoff; i++ {
			runtime.Gosched()
		}
		if backoff < maxBackoff {
			backoff <<= 1
		}
	}
}

func (sl *SpinLock) Unlock() {
	sl.state.Store(0)
}
