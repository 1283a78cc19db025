// Package boot wakes secondary processors with the INIT-STARTUP-STARTUP
// handshake and waits for each to report itself running.
package boot

import "fmt"

import "github.com/ystk/debian-memtest86/src/apic"
import "github.com/ystk/debian-memtest86/src/delay"
import "github.com/ystk/debian-memtest86/src/mem"
import "github.com/ystk/debian-memtest86/src/stats"
import "github.com/ystk/debian-memtest86/src/topo"
import "github.com/ystk/debian-memtest86/src/trace"

// Sequencer_t boots the processors of a registry one at a time from the
// boot processor. it is not safe for concurrent use.
type Sequencer_t struct {
	reg   *topo.Registry_t
	lap   *apic.Lapic_t
	pm    mem.Physmem_i
	dl    delay.Delay_i
	sink  trace.Sink_i
	tm    Timing_t
	stub  Stub_t
	gdt   []uint8
	Stats stats.Boot_t
}

func Mksequencer(reg *topo.Registry_t, lap *apic.Lapic_t, pm mem.Physmem_i,
	dl delay.Delay_i, sink trace.Sink_i, tm Timing_t) *Sequencer_t {
	return &Sequencer_t{reg: reg, lap: lap, pm: pm, dl: dl, sink: sink,
		tm: tm, stub: Trampoline, gdt: Flat_gdt()}
}

// Set_stub replaces the trampoline and the descriptors staged with it.
func (sq *Sequencer_t) Set_stub(st Stub_t, gdt []uint8) {
	if len(gdt) < GDT_LEN {
		panic("short gdt")
	}
	sq.stub = st
	sq.gdt = gdt
}

func (sq *Sequencer_t) target(ord int) uint32 {
	if ord == 0 {
		panic("the boot processor is already running")
	}
	return sq.reg.Id(ord)
}

// Boot wakes ord and waits for it to report. it returns true if ord is
// booted; otherwise ord is left timed out. other ordinals are unaffected
// either way.
func (sq *Sequencer_t) Boot(ord int) bool {
	id := sq.target(ord)
	if st := sq.reg.Status(ord); st != topo.NOTSTARTED {
		panic(fmt.Sprintf("boot of %v in state %v", ord, st))
	}
	sq.reg.Set_status(ord, topo.BOOTING)
	sq.sink.Trace("boot ap", uint64(ord), uint64(id))
	if !Stage(sq.pm, sq.stub, sq.gdt) {
		sq.sink.Status("SMP: cannot stage the trampoline")
		sq.reg.Set_status(ord, topo.TIMEDOUT)
		sq.Stats.Timeouts.Inc()
		return false
	}
	sq.startup(id, uint8(CODE_ADDR>>12))
	sq.sink.Trace("boot wait", uint64(ord), 0)

	for i := 0; i < sq.tm.boot_tries(); i++ {
		sq.dl.Udelay(sq.tm.boot_poll())
		if sq.reg.Status(ord) == topo.BOOTED {
			break
		}
	}
	// a report racing the deadline wins
	if sq.reg.Cas_status(ord, topo.BOOTING, topo.TIMEDOUT) {
		sq.sink.Status(fmt.Sprintf("SMP: Boot timeout for %d "+
			"Turning off SMP", ord))
		sq.Stats.Timeouts.Inc()
		return false
	}
	sq.Stats.Booted.Inc()
	return true
}

// Kick repeats the handshake on ord with a STARTUP vector of page,
// restarting it at page<<12. nothing is staged and nothing is awaited.
func (sq *Sequencer_t) Kick(ord int, page uint8) {
	id := sq.target(ord)
	sq.sink.Trace("kick ap", uint64(ord), uint64(page))
	sq.startup(id, page)
}

// startup sends INIT assert and deassert, then two STARTUPs. the second
// STARTUP is ignored by a processor that took the first.
func (sq *Sequencer_t) startup(id uint32, page uint8) {
	sq.lap.Clear_esr()

	sq.lap.Send_ipi(id, apic.TRIG_LEVEL, 1, apic.DM_INIT, 0)
	sq.Stats.Inits.Inc()
	sq.dl.Udelay(sq.tm.init_hold())
	sq.lap.Send_ipi(id, apic.TRIG_LEVEL, 0, apic.DM_INIT, 0)

	for n := 0; n < 2; n++ {
		sq.lap.Arm_esr()
		sq.lap.Send_ipi(id, apic.TRIG_EDGE, 0, apic.DM_STARTUP, page)
		sq.Stats.Startups.Inc()

		pending := true
		for i := 0; i < sq.tm.Pend_tries && pending; i++ {
			sq.dl.Udelay(sq.tm.Pend_poll)
			pending = sq.lap.Pending()
		}
		if pending {
			sq.sink.Status("SMP: STARTUP IPI was never sent")
			sq.Stats.Sendpending.Inc()
		}

		sq.dl.Udelay(sq.tm.sipi_settle())

		if err := sq.lap.Esr(); err != 0 {
			sq.sink.Statusn("SMP: After STARTUP IPI: err = 0x",
				uint64(err))
			sq.Stats.Esrerrs.Inc()
		}
	}
}
