package barrier

import "sync"
import "sync/atomic"
import "testing"

const NPROC = 6
const NROUND = 50

func rounds(t *testing.T, b *Barrier_t, n int, nround int) {
	arrived := make([]int32, nround)
	var wg sync.WaitGroup
	for p := 0; p < n; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < nround; r++ {
				atomic.AddInt32(&arrived[r], 1)
				b.Arrive()
				if got := atomic.LoadInt32(&arrived[r]); got != int32(n) {
					t.Errorf("round %v released with %v of %v", r,
						got, n)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestRounds(t *testing.T) {
	var b Barrier_t
	b.Init(NPROC)
	rounds(t, &b, NPROC, NROUND)
	if b.Count() != NPROC {
		t.Fatalf("count after drain: %v", b.Count())
	}
	// reusable after a full drain
	rounds(t, &b, NPROC, 1)
}

func TestCountBounds(t *testing.T) {
	var b Barrier_t
	b.Init(NPROC)
	var stop int32
	done := make(chan bool)
	go func() {
		for atomic.LoadInt32(&stop) == 0 {
			c := b.Count()
			if c < 0 || c > NPROC {
				t.Errorf("countdown %v outside [0, %v]", c, NPROC)
			}
		}
		done <- true
	}()
	rounds(t, &b, NPROC, NROUND)
	atomic.StoreInt32(&stop, 1)
	<-done
}

func TestSingle(t *testing.T) {
	var b Barrier_t
	b.Init(1)
	// closed gates must not matter with one participant
	b.enter.Trylock()
	b.lck.Lock()
	b.Arrive()
	b.lck.Unlock()
	if b.count != 1 {
		t.Fatalf("single participant touched count")
	}
}

func TestReinit(t *testing.T) {
	var b Barrier_t
	b.Init(4)
	rounds(t, &b, 4, 3)
	b.Init(2)
	rounds(t, &b, 2, 3)
	if b.N() != 2 {
		t.Fatalf("n %v", b.N())
	}
}

func TestPairIndependent(t *testing.T) {
	var p Pair_t
	p.Init_all(NPROC)
	p.Init_active(3)
	rounds(t, &p.Active, 3, 5)
	if p.All.Count() != NPROC || p.All.N() != NPROC {
		t.Fatalf("active affected all")
	}
	p.Init_active(2)
	rounds(t, &p.All, NPROC, 5)
	if p.Active.N() != 2 || p.Active.Count() != 2 {
		t.Fatalf("all affected active")
	}
	rounds(t, &p.Active, 2, 5)
}

func TestBadInit(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("no panic")
		}
	}()
	var b Barrier_t
	b.Init(0)
}
