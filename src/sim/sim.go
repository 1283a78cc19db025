// Package sim is a simulated PC: firmware tables in an image, a virtual
// clock and a local APIC per processor. INIT and STARTUP commands sent
// through any of the LAPICs start the addressed processor on its own
// goroutine.
package sim

import "sync"

import "github.com/ystk/debian-memtest86/src/apic"
import "github.com/ystk/debian-memtest86/src/delay"
import "github.com/ystk/debian-memtest86/src/fwimg"
import "github.com/ystk/debian-memtest86/src/mem"

// Ap_i is what a started processor executes. Report runs from the clock
// once the processor is through its trampoline; if it returns true, Run
// follows on the processor's own goroutine.
type Ap_i interface {
	Report(apicid uint32) bool
	Run(apicid uint32)
}

type state_t int

const (
	HALTED state_t = iota
	WAIT_SIPI
	RUNNING
)

// Cpu_t is one simulated processor.
type Cpu_t struct {
	Id uint32
	// ignores every command
	Dead bool
	// microseconds from STARTUP to its report
	Latency uint64

	state state_t
	// STARTUP vector it was started with
	Page   uint8
	Starts int
	lap    *Lapic_t
}

// Ipi_t is a delivered command, for inspection.
type Ipi_t struct {
	From  uint32
	Dest  uint32
	Mode  int
	Level int
	Vec   uint8
}

type Platform_t struct {
	sync.Mutex
	Mem   *mem.Image_t
	Clock *delay.Virtual_t
	// send-pending never clears
	Stuck bool
	// error bits every ESR read reports
	Esr uint32
	// default Latency
	Latency uint64

	cpus []*Cpu_t
	byid map[uint32]*Cpu_t
	ap   Ap_i
	wg   sync.WaitGroup
	ipis []Ipi_t
}

// Mkplatform returns a machine with the given processors and no firmware
// tables. the first processor is the one running.
func Mkplatform(cpus []fwimg.Cpu_t) *Platform_t {
	p := &Platform_t{
		Mem:     fwimg.Mkmachine(),
		Clock:   delay.Mkvirtual(),
		Latency: 50,
		byid:    make(map[uint32]*Cpu_t),
	}
	for i, c := range cpus {
		sc := &Cpu_t{Id: c.Id}
		if i == 0 {
			sc.state = RUNNING
		}
		sc.lap = &Lapic_t{p: p, cpu: sc}
		p.cpus = append(p.cpus, sc)
		p.byid[c.Id] = sc
	}
	return p
}

func (p *Platform_t) Cpus() []*Cpu_t {
	return p.cpus
}

func (p *Platform_t) Cpu(id uint32) (*Cpu_t, bool) {
	c, ok := p.byid[id]
	return c, ok
}

// Bsp returns the LAPIC of the running processor.
func (p *Platform_t) Bsp() *Lapic_t {
	return p.cpus[0].lap
}

// Lapic maps the LAPIC of the running processor at base.
func (p *Platform_t) Lapic(base uint64) (apic.Regs_i, bool) {
	if base != uint64(fwimg.LAPIC_BASE) {
		return nil, false
	}
	return p.Bsp(), true
}

// Attach sets what started processors run.
func (p *Platform_t) Attach(ap Ap_i) {
	p.Lock()
	p.ap = ap
	p.Unlock()
}

// Wait returns once every started processor's Run has returned.
func (p *Platform_t) Wait() {
	p.wg.Wait()
}

func (p *Platform_t) Ipis() []Ipi_t {
	p.Lock()
	defer p.Unlock()
	return append([]Ipi_t(nil), p.ipis...)
}

// deliver acts on a command written to from's ICR. it reports whether the
// destination exists.
func (p *Platform_t) deliver(from *Cpu_t, icrhi, icrlo uint32) bool {
	p.Lock()
	defer p.Unlock()
	ipi := Ipi_t{
		From:  from.Id,
		Dest:  icrhi >> 24,
		Mode:  int(icrlo>>8) & 7,
		Level: int(icrlo>>14) & 1,
		Vec:   uint8(icrlo),
	}
	p.ipis = append(p.ipis, ipi)
	c, ok := p.byid[ipi.Dest]
	if !ok {
		return false
	}
	if c.Dead || c == from {
		return true
	}
	switch ipi.Mode {
	case apic.DM_INIT:
		if ipi.Level == 1 {
			c.state = WAIT_SIPI
		}
	case apic.DM_STARTUP:
		// only the first STARTUP after INIT is taken
		if c.state != WAIT_SIPI {
			break
		}
		c.state = RUNNING
		c.Page = ipi.Vec
		c.Starts++
		if c.Starts > 1 {
			// restarted; it reported the first time
			break
		}
		lat := c.Latency
		if lat == 0 {
			lat = p.Latency
		}
		ap := p.ap
		id := c.Id
		p.Clock.After(lat, func() { p.started(ap, id) })
	}
	return true
}

func (p *Platform_t) started(ap Ap_i, id uint32) {
	if ap == nil || !ap.Report(id) {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ap.Run(id)
	}()
}
