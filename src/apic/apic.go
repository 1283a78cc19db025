// Package apic drives the local APIC of the processor running bring-up:
// the interrupt command register pair, the error status register and the
// id register.
package apic

import "sync/atomic"

import "github.com/ystk/debian-memtest86/src/mem"

// Regs_i is indexed 32-bit access to a local APIC register block. register
// numbers are byte offsets divided by 16.
type Regs_i interface {
	Read(reg int) uint32
	Write(reg int, v uint32)
}

const (
	ID    = 0x2
	VER   = 0x3
	ESR   = 0x28
	ICRLO = 0x30
	ICRHI = 0x31
	// registers in the 4KB block
	NREGS = 0x40
)

// delivery modes
const (
	DM_FIXED   = 0
	DM_NMI     = 4
	DM_INIT    = 5
	DM_STARTUP = 6
)

const (
	TRIG_EDGE  = 0
	TRIG_LEVEL = 1
)

// destination shorthands
const (
	DS_NONE   = 0
	DS_SELF   = 1
	DS_ALL    = 2
	DS_OTHERS = 3
)

// ICRLO bit: the last command has not been accepted yet
const ICR_PENDING uint32 = 1 << 12

// error bits worth reporting: all except the reserved bit 4
const ESR_MASK uint32 = 0xef

// bits of ICRLO written by a command; the rest are preserved
const icrlo_keep = ^uint32(0xcdfff)

// Icrlo returns the low command word for a command, keeping the reserved
// bits of old.
func Icrlo(old uint32, ds, trig, level, mode int, vec uint8) uint32 {
	return old&icrlo_keep | uint32(ds)<<18 | uint32(trig)<<15 |
		uint32(level)<<14 | uint32(mode)<<8 | uint32(vec)
}

// Icrhi returns the high command word addressing physical id apicid.
func Icrhi(old uint32, apicid uint32) uint32 {
	return old&0x00ffffff | apicid<<24
}

// Mmio_t is a register block in physical memory.
type Mmio_t struct {
	regs []uint32
}

// Map returns the register block at base.
func Map(pm mem.Physmem_i, base mem.Pa_t) (*Mmio_t, bool) {
	r, ok := mem.Dmaplen32(pm, base, mem.PGSIZE)
	if !ok {
		return nil, false
	}
	return &Mmio_t{regs: r}, true
}

func (m *Mmio_t) Read(reg int) uint32 {
	if reg < 0 || reg >= NREGS {
		panic("bad LAPIC reg")
	}
	return atomic.LoadUint32(&m.regs[reg*4])
}

func (m *Mmio_t) Write(reg int, v uint32) {
	if reg < 0 || reg >= NREGS {
		panic("bad LAPIC reg")
	}
	atomic.StoreUint32(&m.regs[reg*4], v)
}

type Lapic_t struct {
	regs Regs_i
}

func Mklapic(r Regs_i) *Lapic_t {
	return &Lapic_t{regs: r}
}

// Id returns the id of the processor whose LAPIC this is.
func (l *Lapic_t) Id() uint32 {
	return l.regs.Read(ID) >> 24
}

func (l *Lapic_t) Version() uint32 {
	return l.regs.Read(VER) & 0xff
}

// Send_ipi sends an interrupt to physical id apicid. writing ICRLO issues
// the command so the destination goes first.
func (l *Lapic_t) Send_ipi(apicid uint32, trig, level, mode int, vec uint8) {
	l.regs.Write(ICRHI, Icrhi(l.regs.Read(ICRHI), apicid))
	l.regs.Write(ICRLO, Icrlo(l.regs.Read(ICRLO), DS_NONE, trig, level,
		mode, vec))
}

// Pending reports whether the last command is still waiting to be sent.
func (l *Lapic_t) Pending() bool {
	return l.regs.Read(ICRLO)&ICR_PENDING != 0
}

// Arm_esr writes the ESR so that the next read reflects errors since.
func (l *Lapic_t) Arm_esr() {
	l.regs.Write(ESR, 0)
}

// Clear_esr discards any latched errors.
func (l *Lapic_t) Clear_esr() {
	l.regs.Write(ESR, 0)
	l.regs.Read(ESR)
}

// Esr returns the reportable error bits.
func (l *Lapic_t) Esr() uint32 {
	return l.regs.Read(ESR) & ESR_MASK
}
