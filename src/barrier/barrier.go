// Package barrier implements the reusable busy-wait rendezvous used to gate
// parallel phases once secondary processors are running.
package barrier

import "sync/atomic"

import "github.com/ystk/debian-memtest86/src/spinlock"

// Barrier_t releases its participants only after all n of them have called
// Arrive. the countdown is protected by lck. the two gates are spinlocks
// that are held while closed; they are only closed or opened with lck
// held, and participants wait for them to clear without taking them.
// enter and leave are never both open.
type Barrier_t struct {
	lck     spinlock.Spinlock_t
	maxproc int32
	count   int32
	// closed while the current round drains
	enter spinlock.Spinlock_t
	// closed while the current round is still arriving
	leave spinlock.Spinlock_t
}

// Init sizes the barrier for n participants. it must not be called while
// any participant is inside Arrive.
func (b *Barrier_t) Init(n int) {
	if n < 1 {
		panic("barrier needs a participant")
	}
	b.lck.Lock()
	atomic.StoreInt32(&b.maxproc, int32(n))
	b.count = int32(n)
	b.leave.Trylock()
	b.enter.Unlock()
	b.lck.Unlock()
}

func (b *Barrier_t) N() int {
	return int(atomic.LoadInt32(&b.maxproc))
}

// Count returns the live countdown.
func (b *Barrier_t) Count() int {
	b.lck.Lock()
	c := int(b.count)
	b.lck.Unlock()
	return c
}

// Arrive blocks until all participants of the current round have arrived.
// with a single participant it returns immediately.
func (b *Barrier_t) Arrive() {
	if atomic.LoadInt32(&b.maxproc) <= 1 {
		return
	}
	// wait for the previous round to drain
	b.enter.Wait()
	b.lck.Lock()
	b.count--
	if b.count == 0 {
		// last one in: hold up re-entry and release the others
		b.enter.Trylock()
		b.leave.Unlock()
		b.count++
		b.lck.Unlock()
		return
	}
	b.lck.Unlock()
	b.leave.Wait()
	b.lck.Lock()
	b.count++
	if b.count == b.maxproc {
		// last one out re-arms the barrier
		b.leave.Trylock()
		b.enter.Unlock()
	}
	b.lck.Unlock()
}

// Pair_t is the pair of barriers the machine keeps: All spans every running
// processor, Active the subset taking part in the current phase. the two
// are independent; initializing one leaves the other alone.
type Pair_t struct {
	All    Barrier_t
	Active Barrier_t
}

func (p *Pair_t) Init_all(n int) {
	p.All.Init(n)
}

func (p *Pair_t) Init_active(n int) {
	p.Active.Init(n)
}
