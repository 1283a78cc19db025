// Package spinlock provides the single-word test-and-set lock the bring-up
// code is built on. there is nothing to block on before the processors are
// running, so every operation busy-waits.
package spinlock

import "runtime"
import "sync/atomic"

type Spinlock_t struct {
	state uint32
}

// Pause is executed on every failed spin iteration. it stands in for the
// PAUSE instruction; on a hosted runtime it must also let other goroutines
// run.
var Pause = runtime.Gosched

// Lock busy-waits until the lock is acquired. re-acquiring a lock held by
// the caller deadlocks.
func (l *Spinlock_t) Lock() {
	for !atomic.CompareAndSwapUint32(&l.state, 0, 1) {
		for atomic.LoadUint32(&l.state) != 0 {
			Pause()
		}
	}
}

// Trylock returns true if the lock was acquired.
func (l *Spinlock_t) Trylock() bool {
	return atomic.SwapUint32(&l.state, 1) == 0
}

// Unlock releases the lock. releasing a free lock has no effect.
func (l *Spinlock_t) Unlock() {
	atomic.StoreUint32(&l.state, 0)
}

// Wait spins until the lock is observed clear without acquiring it.
func (l *Spinlock_t) Wait() {
	for atomic.LoadUint32(&l.state) != 0 {
		Pause()
	}
}
