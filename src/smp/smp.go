// Package smp brings the machine from the boot processor alone to every
// selected processor running: it scans the topology, sizes the barriers
// and boots the secondary processors one by one.
package smp

import "fmt"
import "sync/atomic"

import "github.com/ystk/debian-memtest86/src/apic"
import "github.com/ystk/debian-memtest86/src/barrier"
import "github.com/ystk/debian-memtest86/src/boot"
import "github.com/ystk/debian-memtest86/src/cpuid"
import "github.com/ystk/debian-memtest86/src/delay"
import "github.com/ystk/debian-memtest86/src/mem"
import "github.com/ystk/debian-memtest86/src/spinlock"
import "github.com/ystk/debian-memtest86/src/topo"
import "github.com/ystk/debian-memtest86/src/trace"

// the most processors the machine keeps track of
const MAXCPUS = 32

type Config_t struct {
	// processors to use; 1 or less skips discovery
	Maxcpus int
	// ordinals to boot; nil selects all. ordinal 0 always runs
	Mask []bool
	// registry capacity; 0 means MAXCPUS
	Platform_max int
	Timing       boot.Timing_t
	// run by every processor once bring-up is over, the boot processor
	// included when it calls Run_bsp
	Workload func(m *Machine_t, ord int)
}

func (c *Config_t) selected(ord int) bool {
	if ord == 0 || c.Mask == nil {
		return true
	}
	return ord < len(c.Mask) && c.Mask[ord]
}

func (c *Config_t) platform_max() int {
	if c.Platform_max <= 0 || c.Platform_max > MAXCPUS {
		return MAXCPUS
	}
	return c.Platform_max
}

// Hw_t is the hardware the machine runs on.
type Hw_t struct {
	Mem   mem.Physmem_i
	Cpuid cpuid.Oracle_i
	Delay delay.Delay_i
	// maps the local APIC registers at base
	Lapic func(base uint64) (apic.Regs_i, bool)
	Sink  trace.Sink_i
}

// Machine_t is the topology context: built once by Initialise_cpus on the
// boot processor and shared by reference with every processor afterwards.
type Machine_t struct {
	cfg  Config_t
	hw   Hw_t
	sink trace.Sink_i

	Topo  *topo.Result_t
	Reg   *topo.Registry_t
	Lapic *apic.Lapic_t
	Seq   *boot.Sequencer_t
	Ords  Ordmap_t

	bar      barrier.Pair_t
	found    int
	act      int
	released uint32
}

func Mkmachine(cfg Config_t, hw Hw_t) *Machine_t {
	if hw.Sink == nil {
		hw.Sink = trace.Nop
	}
	if hw.Lapic == nil {
		pm := hw.Mem
		hw.Lapic = func(base uint64) (apic.Regs_i, bool) {
			return apic.Map(pm, mem.Pa_t(base))
		}
	}
	m := &Machine_t{cfg: cfg, hw: hw, sink: hw.Sink}
	m.Ords.init()
	return m
}

// Initialise_cpus discovers the processors, sizes the barriers for the
// selected ones and boots them. it returns with every booted processor
// released into the workload and the barriers sized to exactly the
// processors that are running.
func (m *Machine_t) Initialise_cpus() {
	m.sink.Trace("init_cpus0", uint64(m.cfg.Maxcpus), 0)
	m.act = 0
	if m.cfg.Maxcpus > 1 {
		m.Topo = topo.Scan(m.hw.Mem, m.hw.Cpuid, m.cfg.platform_max(),
			m.sink)
		m.Reg = m.Topo.Reg
		m.Reg.Truncate(m.cfg.Maxcpus)
		m.found = m.Topo.Found
		for i := 0; i < m.Reg.Len(); i++ {
			if m.cfg.selected(i) {
				m.act++
			}
		}
	} else {
		m.Topo = &topo.Result_t{Reg: topo.Mkregistry(1), Found: 1}
		m.Reg = m.Topo.Reg
		m.found = 1
		m.act = 1
	}

	base := m.Topo.Lapic
	if base == 0 {
		base = topo.DEFAULT_LAPIC
	}
	regs, ok := m.hw.Lapic(base)
	if !ok {
		m.sink.Statusn("SMP: no local APIC at 0x", base)
		m.Reg.Truncate(1)
		m.act = 1
		m.bar.Init_all(1)
		m.bar.Init_active(1)
		m.release()
		return
	}
	m.Lapic = apic.Mklapic(regs)
	if m.Topo.Source == topo.NONE {
		m.Reg.Set_bsp(m.Lapic.Id())
	}

	// sized before any processor can arrive
	m.bar.Init_all(m.act)
	m.bar.Init_active(m.act)

	m.Seq = boot.Mksequencer(m.Reg, m.Lapic, m.hw.Mem, m.hw.Delay, m.sink,
		m.cfg.Timing)
	for i := 1; i < m.Reg.Len(); i++ {
		if m.cfg.selected(i) {
			m.Seq.Boot(i)
		}
	}

	// processors that timed out never arrive
	if n := m.Reg.Nstatus(topo.BOOTED); n != m.act {
		m.sink.Status(fmt.Sprintf("SMP: %d of %d processors started",
			n, m.act))
		m.act = n
		m.bar.Init_all(n)
		m.bar.Init_active(n)
	}
	m.sink.Trace("init_cpus1", uint64(m.Reg.Len()), uint64(m.act))
	m.release()
}

func (m *Machine_t) release() {
	atomic.StoreUint32(&m.released, 1)
}

// Released reports whether bring-up is over.
func (m *Machine_t) Released() bool {
	return atomic.LoadUint32(&m.released) != 0
}

// Ap_booted is the self-report of a secondary processor. it fails if the
// boot of ord already timed out, in which case the processor must park.
func (m *Machine_t) Ap_booted(ord int) bool {
	if ord == 0 {
		return false
	}
	ok := m.Reg.Cas_status(ord, topo.BOOTING, topo.BOOTED)
	m.sink.Trace("ap booted", uint64(ord), b2u(ok))
	return ok
}

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// Ap_wait spins until bring-up is over.
func (m *Machine_t) Ap_wait() {
	for !m.Released() {
		spinlock.Pause()
	}
}

// Ap_entry is where a secondary processor goes once it runs Go code: it
// reports itself and waits for the release. it returns false if the
// processor was given up on and must park.
func (m *Machine_t) Ap_entry(ord int) bool {
	if !m.Ap_booted(ord) {
		return false
	}
	m.Ap_wait()
	return true
}

// Report and Run let simulated processors find their ordinal from their
// APIC id as real ones do by reading their LAPIC.
func (m *Machine_t) Report(apicid uint32) bool {
	ord, ok := m.Reg.Ord_of(apicid)
	if !ok {
		return false
	}
	return m.Ap_booted(ord)
}

func (m *Machine_t) Run(apicid uint32) {
	ord := m.My_cpu_num(apicid)
	m.Ap_wait()
	if m.cfg.Workload != nil {
		m.cfg.Workload(m, ord)
	}
}

// Run_bsp runs the workload on the boot processor.
func (m *Machine_t) Run_bsp() {
	if m.cfg.Workload != nil {
		m.cfg.Workload(m, 0)
	}
}

// Barrier waits for every running processor.
func (m *Machine_t) Barrier() {
	m.bar.All.Arrive()
}

// S_barrier waits for the processors of the current phase.
func (m *Machine_t) S_barrier() {
	m.bar.Active.Arrive()
}

// S_barrier_init resizes the phase barrier. no processor may be inside
// S_barrier.
func (m *Machine_t) S_barrier_init(n int) {
	m.bar.Init_active(n)
}

// Barriers exposes the pair for inspection.
func (m *Machine_t) Barriers() *barrier.Pair_t {
	return &m.bar
}

// My_cpu_num returns the ordinal of the processor with APIC id apicid,
// or 0 if there is none.
func (m *Machine_t) My_cpu_num(apicid uint32) int {
	if ord, ok := m.Reg.Ord_of(apicid); ok {
		return ord
	}
	return 0
}

// Active returns the number of processors running once bring-up is over.
func (m *Machine_t) Active() int {
	return m.act
}

// Found returns the processor entries seen by discovery, sibling threads
// included.
func (m *Machine_t) Found() int {
	return m.found
}

// Running returns the ordinals that are running.
func (m *Machine_t) Running() []int {
	ret := []int{0}
	for i := 1; i < m.Reg.Len(); i++ {
		if m.Reg.Status(i) == topo.BOOTED {
			ret = append(ret, i)
		}
	}
	return ret
}
