package mptable

import "github.com/ystk/debian-memtest86/src/mem"
import "github.com/ystk/debian-memtest86/src/util"

const CFG_SIG = "PCMP"
const CFG_HDRLEN = 44

// configuration table header offsets
const (
	cfg_len     = 4
	cfg_rev     = 6
	cfg_cksum   = 7
	cfg_oem     = 8
	cfg_product = 16
	cfg_nent    = 34
	cfg_lapic   = 36
)

type Etype_t uint8

const (
	PROCESSOR Etype_t = 0
	BUS       Etype_t = 1
	IOAPIC    Etype_t = 2
	INTSRC    Etype_t = 3
	LINTSRC   Etype_t = 4
)

// every entry type of the base table has a fixed size
var esize = map[Etype_t]int{
	PROCESSOR: 20,
	BUS:       8,
	IOAPIC:    8,
	INTSRC:    8,
	LINTSRC:   8,
}

func (t Etype_t) Size() (int, bool) {
	sz, ok := esize[t]
	return sz, ok
}

// processor entry flags
const (
	CPU_ENABLED uint8 = 1 << 0
	CPU_BSP     uint8 = 1 << 1
)

type Proc_t struct {
	Apicid  uint8
	Apicver uint8
	Flags   uint8
}

func (p Proc_t) Bsp() bool {
	return p.Flags&CPU_BSP != 0
}

// Config_t is a parsed configuration table.
type Config_t struct {
	Addr    mem.Pa_t
	Oem     string
	Product string
	Lapic   uint32
	Procs   []Proc_t
	Nbus    int
	Nioapic int
	Nintsrc int
	Nlint   int
	// the whole table as validated
	Raw []uint8
}

// Read_config maps and parses the configuration table at pa.
func Read_config(pm mem.Physmem_i, pa mem.Pa_t) (*Config_t, error) {
	hdr, ok := pm.Dmaplen(pa, CFG_HDRLEN)
	if !ok {
		return nil, mperr(ErrLength, "header at %#x unmapped", pa)
	}
	if string(hdr[:4]) != CFG_SIG {
		return nil, mperr(ErrSignature, "%q at %#x", hdr[:4], pa)
	}
	l := util.Readn(hdr, 2, cfg_len)
	tbl, ok := pm.Dmaplen(pa, l)
	if !ok {
		return nil, mperr(ErrLength, "%v bytes at %#x unmapped", l, pa)
	}
	c, err := Parse_config(tbl)
	if err != nil {
		return nil, err
	}
	c.Addr = pa
	return c, nil
}

// Parse_config validates tbl and walks its entries. any processor whose
// local APIC is not an integrated APIC (version 1x) rejects the table, as
// does an entry of unknown type.
func Parse_config(tbl []uint8) (*Config_t, error) {
	if len(tbl) < CFG_HDRLEN {
		return nil, mperr(ErrLength, "short header")
	}
	if string(tbl[:4]) != CFG_SIG {
		return nil, mperr(ErrSignature, "%q", tbl[:4])
	}
	l := util.Readn(tbl, 2, cfg_len)
	if l < CFG_HDRLEN || l > len(tbl) {
		return nil, mperr(ErrLength, "length %v", l)
	}
	tbl = tbl[:l]
	if util.Cksum(tbl) != 0 {
		return nil, mperr(ErrChecksum, "length %v", l)
	}
	c := &Config_t{Raw: tbl}
	c.Oem = string(tbl[cfg_oem:cfg_product])
	c.Product = string(tbl[cfg_product : cfg_product+12])
	c.Lapic = uint32(util.Readn(tbl, 4, cfg_lapic))

	for off := CFG_HDRLEN; off < l; {
		tp := Etype_t(tbl[off])
		sz, ok := tp.Size()
		if !ok {
			return nil, mperr(ErrEntryType, "type %v at offset %v", tp, off)
		}
		if off+sz > l {
			return nil, mperr(ErrLength, "entry at %v overruns", off)
		}
		e := tbl[off : off+sz]
		switch tp {
		case PROCESSOR:
			p := Proc_t{Apicid: e[1], Apicver: e[2], Flags: e[3]}
			// non-integrated 82489DX APICs cannot be started
			if p.Apicver&0xf0 != 0x10 {
				return nil, mperr(ErrApicVersion, "apic %v version %#x",
					p.Apicid, p.Apicver)
			}
			c.Procs = append(c.Procs, p)
		case BUS:
			c.Nbus++
		case IOAPIC:
			c.Nioapic++
		case INTSRC:
			c.Nintsrc++
		case LINTSRC:
			c.Nlint++
		}
		off += sz
	}
	return c, nil
}
