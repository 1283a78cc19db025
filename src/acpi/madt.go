package acpi

import "github.com/ystk/debian-memtest86/src/mem"
import "github.com/ystk/debian-memtest86/src/trace"
import "github.com/ystk/debian-memtest86/src/util"

const MADT_SIG = "APIC"

// the interrupt controller structures start after the LAPIC address and
// flags
const (
	madt_lapic = 36
	madt_ents  = 44
)

// interrupt controller structure types, ACPI 5.2.12
type Etype_t uint8

const (
	LAPIC      Etype_t = 0
	IOAPIC     Etype_t = 1
	OVERRIDE   Etype_t = 2
	NMISRC     Etype_t = 3
	LAPIC_NMI  Etype_t = 4
	LAPIC_ADDR Etype_t = 5
	IOSAPIC    Etype_t = 6
	LSAPIC     Etype_t = 7
	PINTSRC    Etype_t = 8
	X2APIC     Etype_t = 9
)

// minimum length of the structures whose fields are read
var emin = map[Etype_t]int{
	LAPIC:      8,
	IOAPIC:     12,
	OVERRIDE:   10,
	LAPIC_ADDR: 12,
	X2APIC:     16,
}

type Lapic_t struct {
	Procid  uint8
	Apicid  uint8
	Enabled bool
}

type Ioapic_t struct {
	Id       uint8
	Base     uint32
	Gsi_base uint32
}

// Oride_t is an interrupt source override.
type Oride_t struct {
	Src int
	Dst int
	// trigger sense
	Level bool
	// polarity
	Low bool
}

type X2apic_t struct {
	Id      uint32
	Uid     uint32
	Enabled bool
}

// Madt_t is a parsed MADT. processor entries are kept in table order.
type Madt_t struct {
	Addr      mem.Pa_t
	Lapic     uint64
	Lapics    []Lapic_t
	Ioapics   []Ioapic_t
	Overrides map[int]Oride_t
	X2apics   []X2apic_t
	Raw       []uint8
}

// polarity and trigger mode fields of an override's flags. "conforms"
// means ISA semantics for the first 16 inputs.
func mkoride(src, dst int, v int) Oride_t {
	o := Oride_t{Src: src, Dst: dst}
	switch v & 0x3 {
	case 0:
		o.Low = dst >= 16
	case 3:
		o.Low = true
	}
	switch (v & 0xc) >> 2 {
	case 0:
		o.Level = dst >= 16
	case 3:
		o.Level = true
	}
	return o
}

// Parse_madt walks the interrupt controller structures of a validated
// MADT. a structure too short for its type stops the walk with an error.
func Parse_madt(tbl []uint8) (*Madt_t, error) {
	if len(tbl) < madt_ents {
		return nil, acpierr(ErrLength, "short MADT")
	}
	if string(tbl[:4]) != MADT_SIG {
		return nil, acpierr(ErrSignature, "%q", tbl[:4])
	}
	if util.Cksum(tbl) != 0 {
		return nil, acpierr(ErrChecksum, "MADT")
	}
	md := &Madt_t{Raw: tbl, Overrides: make(map[int]Oride_t)}
	md.Lapic = uint64(util.Readn(tbl, 4, madt_lapic))
	for off := madt_ents; off < len(tbl); {
		if off+2 > len(tbl) {
			return nil, acpierr(ErrLength, "truncated entry at %v", off)
		}
		tp := Etype_t(tbl[off])
		l := int(tbl[off+1])
		if l < 2 || off+l > len(tbl) {
			return nil, acpierr(ErrLength, "entry at %v length %v",
				off, l)
		}
		if need, ok := emin[tp]; ok && l < need {
			return nil, acpierr(ErrLength, "type %v length %v", tp, l)
		}
		m := tbl[off : off+l]
		switch tp {
		case LAPIC:
			// ACPI 5.2.12.2: each processor is required to have a
			// LAPIC entry
			md.Lapics = append(md.Lapics, Lapic_t{
				Procid:  m[2],
				Apicid:  m[3],
				Enabled: util.Readn(m, 4, 4)&1 != 0,
			})
		case IOAPIC:
			md.Ioapics = append(md.Ioapics, Ioapic_t{
				Id:       m[2],
				Base:     uint32(util.Readn(m, 4, 4)),
				Gsi_base: uint32(util.Readn(m, 4, 8)),
			})
		case OVERRIDE:
			src := util.Readn(m, 1, 3)
			dst := util.Readn(m, 4, 4)
			md.Overrides[dst] = mkoride(src, dst, util.Readn(m, 2, 8))
		case LAPIC_ADDR:
			md.Lapic = uint64(util.Readn(m, 8, 4))
		case X2APIC:
			md.X2apics = append(md.X2apics, X2apic_t{
				Id:      uint32(util.Readn(m, 4, 4)),
				Enabled: util.Readn(m, 4, 8)&1 != 0,
				Uid:     uint32(util.Readn(m, 4, 12)),
			})
		}
		off += l
	}
	return md, nil
}

// Find_madt follows the root pointer chain to the first MADT that parses.
func Find_madt(pm mem.Physmem_i, s trace.Sink_i) (*Madt_t, error) {
	rp, ok := Find_rsdp(pm, s)
	if !ok {
		return nil, acpierr(ErrNotFound, "no RSDP")
	}
	s.Trace("found rsdp", uint64(rp.Addr), uint64(rp.Rev))
	rt, err := Root(pm, rp)
	if err != nil {
		return nil, err
	}
	var md *Madt_t
	rt.Lookup(pm, MADT_SIG, s, func(pa mem.Pa_t, tbl []uint8) bool {
		m, err := Parse_madt(tbl)
		if err != nil {
			s.Trace("madt bad", uint64(pa), 0)
			return false
		}
		m.Addr = pa
		md = m
		return true
	})
	if md == nil {
		return nil, acpierr(ErrNotFound, "no MADT in %s", rt.Sig)
	}
	return md, nil
}
