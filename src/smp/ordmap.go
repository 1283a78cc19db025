package smp

import "sync/atomic"

// Ordmap_t maps processor ordinals to the ordinals a workload assigns
// them, which survive the workload relocating itself. each processor
// writes only its own slot.
type Ordmap_t struct {
	ords [MAXCPUS]int32
}

func (o *Ordmap_t) init() {
	for i := range o.ords {
		o.ords[i] = -1
	}
}

func (o *Ordmap_t) Set_ordinal(me, ord int) {
	atomic.StoreInt32(&o.ords[me], int32(ord))
}

// My_ord_num returns me's assigned ordinal, or -1.
func (o *Ordmap_t) My_ord_num(me int) int {
	return int(atomic.LoadInt32(&o.ords[me]))
}

// Ord_to_cpu returns the processor assigned ord, or -1.
func (o *Ordmap_t) Ord_to_cpu(ord int) int {
	if ord < 0 {
		return -1
	}
	for i := range o.ords {
		if int(atomic.LoadInt32(&o.ords[i])) == ord {
			return i
		}
	}
	return -1
}
