package sim

import "sync"

import "github.com/ystk/debian-memtest86/src/apic"

// ESR bit set when no processor accepted a command
const ESR_SEND_ACCEPT uint32 = 1 << 2

// Lapic_t is one processor's local APIC. commands take effect when ICRLO
// is written; errors are visible in the ESR until it is next written.
type Lapic_t struct {
	sync.Mutex
	p    *Platform_t
	cpu  *Cpu_t
	regs [apic.NREGS]uint32
	esr  uint32
}

func (l *Lapic_t) Read(reg int) uint32 {
	l.Lock()
	defer l.Unlock()
	switch reg {
	case apic.ID:
		return l.cpu.Id << 24
	case apic.VER:
		// integrated APIC, 6 LVT entries
		return 0x50014
	case apic.ESR:
		return l.esr | l.p.Esr
	case apic.ICRLO:
		if l.p.Stuck {
			return l.regs[reg] | apic.ICR_PENDING
		}
	}
	return l.regs[reg]
}

func (l *Lapic_t) Write(reg int, v uint32) {
	l.Lock()
	switch reg {
	case apic.ESR:
		l.esr = 0
		l.Unlock()
		return
	case apic.ICRLO:
		// the pending bit is read-only
		l.regs[reg] = v &^ apic.ICR_PENDING
		hi := l.regs[apic.ICRHI]
		l.Unlock()
		if !l.p.deliver(l.cpu, hi, v) {
			l.Lock()
			l.esr |= ESR_SEND_ACCEPT
			l.Unlock()
		}
		return
	}
	l.regs[reg] = v
	l.Unlock()
}
