package main

import "fmt"
import "os"
import "strings"
import "sync/atomic"

import "github.com/ystk/debian-memtest86/src/boot"
import "github.com/ystk/debian-memtest86/src/cpuid"
import "github.com/ystk/debian-memtest86/src/fwimg"
import "github.com/ystk/debian-memtest86/src/mem"
import "github.com/ystk/debian-memtest86/src/report"
import "github.com/ystk/debian-memtest86/src/sim"
import "github.com/ystk/debian-memtest86/src/smp"
import "github.com/ystk/debian-memtest86/src/stats"
import "github.com/ystk/debian-memtest86/src/topo"
import "github.com/ystk/debian-memtest86/src/trace"

// scan discovers the processors described by the tables in pm without
// starting any of them. max is limited the way the machine limits it: 1
// or less skips discovery and keeps the boot processor alone, and no more
// than smp.MAXCPUS are registered.
func scan(pm mem.Physmem_i, o cpuid.Oracle_i, max int,
	s trace.Sink_i) *report.Report_t {
	if max <= 1 {
		s.Trace("scan skip", 0, 0)
		return report.Scanned(&topo.Result_t{Reg: topo.Mkregistry(1),
			Found: 1})
	}
	if max > smp.MAXCPUS {
		max = smp.MAXCPUS
	}
	return report.Scanned(topo.Scan(pm, o, max, s))
}

func load_image(path string, base uint64) (*mem.Image_t, error) {
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(d) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}
	im := mem.Mkimage()
	im.Load(mem.Pa_t(base), d)
	return im, nil
}

// oracle answers like a processor of the given layout.
func oracle(l layout_t) cpuid.Oracle_i {
	f := cpuid.Mkfake("GenuineIntel").Features(l.threads > 1,
		uint32(l.ncpus()))
	if l.threads > 1 {
		// the SMT level of the extended topology leaf
		f.Set(cpuid.LEAF_TOPO, 0, uint32(l.tbits), uint32(l.threads),
			1<<8, 0)
	}
	return f
}

// firmware installs the tables fw names into the platform's memory.
func firmware(p *sim.Platform_t, fw string, cpus []fwimg.Cpu_t) error {
	switch fw {
	case "mp":
		fwimg.Legacy(p.Mem, cpus)
	case "acpi":
		fwimg.Acpi(p.Mem, 2, cpus)
	case "both":
		fwimg.Legacy(p.Mem, cpus)
		fwimg.Acpi(p.Mem, 2, cpus)
	case "none":
	default:
		return fmt.Errorf("unknown firmware %q", fw)
	}
	return nil
}

// simulate brings up a simulated machine and runs rounds barrier
// rendezvous on every processor that started. it returns the report and
// the number of barrier passes.
func simulate(op *opts_t, s trace.Sink_i) (*report.Report_t, int64, error) {
	cpus := fwimg.Cpus(op.sim.cores, op.sim.threads, op.sim.tbits)
	p := sim.Mkplatform(cpus)
	if err := firmware(p, op.fw, cpus); err != nil {
		return nil, 0, err
	}
	for _, id := range op.dead {
		c, ok := p.Cpu(id)
		if !ok {
			return nil, 0, fmt.Errorf("no processor with APIC id %d", id)
		}
		if c == p.Cpus()[0] {
			return nil, 0, fmt.Errorf("APIC id %d is the boot processor", id)
		}
		c.Dead = true
	}

	var passes int64
	work := func(m *smp.Machine_t, ord int) {
		for i := 0; i < op.rounds; i++ {
			m.Barrier()
			atomic.AddInt64(&passes, 1)
		}
		s.Trace("done", uint64(ord), uint64(op.rounds))
	}
	tm := boot.Default_timing
	// virtual time; nothing needs the real delays
	tm.Delay_factor = 100
	m := smp.Mkmachine(smp.Config_t{
		Maxcpus:  op.maxcpus,
		Mask:     op.mask,
		Timing:   tm,
		Workload: work,
	}, smp.Hw_t{
		Mem:   p.Mem,
		Cpuid: oracle(op.sim),
		Delay: p.Clock,
		Lapic: p.Lapic,
		Sink:  s,
	})
	p.Attach(m)
	m.Initialise_cpus()
	m.Run_bsp()
	p.Wait()
	if m.Seq != nil {
		s.Status("SMP: boot counters:" +
			strings.TrimRight(stats.Stats2String(&m.Seq.Stats), "\n"))
	}
	return report.Build(m), passes, nil
}

// summary prints r the way the machine prints its processor list.
func summary(r *report.Report_t, s trace.Sink_i) {
	s.Status(fmt.Sprintf("SMP: %s, %d found, %d active, LAPIC at %#x",
		r.Source, r.Found, r.Active, r.Lapic))
	for _, c := range r.Cpus {
		s.Status(fmt.Sprintf("  cpu %2d apic %3d %s", c.Ord, c.Apicid,
			c.Status))
	}
	for _, t := range r.Tables {
		s.Status(fmt.Sprintf("  %s at %#x len %d", t.Sig, t.Addr, t.Len))
	}
	if r.Ioapics != 0 {
		s.Status(fmt.Sprintf("  %d IO APIC", r.Ioapics))
	}
}
