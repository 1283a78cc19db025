// Package topo discovers which processors exist and assigns them dense
// ordinals. ordinal 0 is always the boot processor.
package topo

import "fmt"
import "sync/atomic"

type Status_t uint32

const (
	NOTSTARTED Status_t = iota
	BOOTING
	BOOTED
	TIMEDOUT
)

func (s Status_t) String() string {
	switch s {
	case NOTSTARTED:
		return "not-started"
	case BOOTING:
		return "booting"
	case BOOTED:
		return "booted"
	case TIMEDOUT:
		return "timed-out"
	}
	return fmt.Sprintf("status(%d)", uint32(s))
}

// Record_t is one discovered processor. only status changes after the
// registry is built; it is written by the processor itself and read by
// the boot processor, so it is accessed atomically.
type Record_t struct {
	Id     uint32
	status uint32
}

// Registry_t is the ordered set of processors. hardware ids are pairwise
// distinct.
type Registry_t struct {
	recs []Record_t
	max  int
}

func Mkregistry(max int) *Registry_t {
	if max < 1 {
		panic("registry needs room for the boot processor")
	}
	r := &Registry_t{max: max}
	r.recs = make([]Record_t, 1, max)
	r.recs[0].status = uint32(BOOTED)
	return r
}

func (r *Registry_t) Len() int {
	return len(r.recs)
}

func (r *Registry_t) Cap() int {
	return r.max
}

func (r *Registry_t) Full() bool {
	return len(r.recs) >= r.max
}

// Set_bsp records the boot processor's hardware id.
func (r *Registry_t) Set_bsp(id uint32) {
	r.recs[0].Id = id
}

// Add appends a processor and returns its ordinal, or false if the
// registry is full or the id is already present.
func (r *Registry_t) Add(id uint32) (int, bool) {
	if r.Full() {
		return 0, false
	}
	if _, ok := r.Ord_of(id); ok {
		return 0, false
	}
	r.recs = append(r.recs, Record_t{Id: id})
	return len(r.recs) - 1, true
}

// Truncate drops every ordinal at or above n.
func (r *Registry_t) Truncate(n int) {
	if n < 1 {
		n = 1
	}
	if n < len(r.recs) {
		r.recs = r.recs[:n]
	}
}

func (r *Registry_t) rec(ord int) *Record_t {
	if ord < 0 || ord >= len(r.recs) {
		panic("bad ordinal")
	}
	return &r.recs[ord]
}

func (r *Registry_t) Id(ord int) uint32 {
	return r.rec(ord).Id
}

func (r *Registry_t) Status(ord int) Status_t {
	return Status_t(atomic.LoadUint32(&r.rec(ord).status))
}

func (r *Registry_t) Set_status(ord int, s Status_t) {
	if ord == 0 {
		panic("boot processor status is fixed")
	}
	atomic.StoreUint32(&r.rec(ord).status, uint32(s))
}

// Cas_status moves ord from old to new and reports whether it did.
func (r *Registry_t) Cas_status(ord int, old, new Status_t) bool {
	if ord == 0 {
		panic("boot processor status is fixed")
	}
	return atomic.CompareAndSwapUint32(&r.rec(ord).status, uint32(old),
		uint32(new))
}

// Ord_of returns the ordinal with hardware id id.
func (r *Registry_t) Ord_of(id uint32) (int, bool) {
	for i := range r.recs {
		if r.recs[i].Id == id {
			return i, true
		}
	}
	return 0, false
}

func (r *Registry_t) Ids() []uint32 {
	ret := make([]uint32, len(r.recs))
	for i := range r.recs {
		ret[i] = r.recs[i].Id
	}
	return ret
}

// Nstatus returns how many ordinals have status s.
func (r *Registry_t) Nstatus(s Status_t) int {
	n := 0
	for i := range r.recs {
		if r.Status(i) == s {
			n++
		}
	}
	return n
}
