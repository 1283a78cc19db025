// Package delay provides busy-wait delays. there is no timer before the
// machine is up, so delays count processor cycles against an assumed clock
// rate.
package delay

import "sort"
import "sync"
import "time"

type Delay_i interface {
	Udelay(us uint)
}

// Spin_t busy-waits until Cycles has advanced by us*Mhz. the rate is
// assumed, not measured.
type Spin_t struct {
	Mhz    uint64
	Cycles func() uint64
	Pause  func()
}

var epoch = time.Now()

// Mkhost returns a spinner that reads a nanosecond counter as its cycle
// counter, i.e. a 1GHz processor.
func Mkhost() *Spin_t {
	return &Spin_t{
		Mhz: 1000,
		Cycles: func() uint64 {
			return uint64(time.Since(epoch))
		},
	}
}

func (s *Spin_t) Udelay(us uint) {
	cycles := uint64(us) * s.Mhz
	t0 := s.Cycles()
	for s.Cycles()-t0 < cycles {
		if s.Pause != nil {
			s.Pause()
		}
	}
}

type event_t struct {
	at uint64
	fn func()
}

// Virtual_t is a clock that only moves when someone delays on it. events
// scheduled with At fire, in time order, from inside the Udelay call that
// carries the clock past them.
type Virtual_t struct {
	sync.Mutex
	now    uint64
	evs    []event_t
	Yield  func()
	ndelay uint64
}

func Mkvirtual() *Virtual_t {
	return &Virtual_t{}
}

func (v *Virtual_t) Now() uint64 {
	v.Lock()
	defer v.Unlock()
	return v.now
}

// Delays returns the number of Udelay calls made.
func (v *Virtual_t) Delays() uint64 {
	v.Lock()
	defer v.Unlock()
	return v.ndelay
}

// At schedules fn to run once the clock reaches us.
func (v *Virtual_t) At(us uint64, fn func()) {
	v.Lock()
	v.evs = append(v.evs, event_t{at: us, fn: fn})
	sort.SliceStable(v.evs, func(i, j int) bool {
		return v.evs[i].at < v.evs[j].at
	})
	v.Unlock()
}

// After schedules fn to run us from now.
func (v *Virtual_t) After(us uint64, fn func()) {
	v.At(v.Now()+us, fn)
}

func (v *Virtual_t) Udelay(us uint) {
	v.Lock()
	v.ndelay++
	end := v.now + uint64(us)
	for len(v.evs) != 0 && v.evs[0].at <= end {
		e := v.evs[0]
		v.evs = v.evs[1:]
		if e.at > v.now {
			v.now = e.at
		}
		// events may schedule more events
		v.Unlock()
		e.fn()
		v.Lock()
	}
	v.now = end
	v.Unlock()
	if v.Yield != nil {
		v.Yield()
	}
}
