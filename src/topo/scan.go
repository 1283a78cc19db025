package topo

import "github.com/ystk/debian-memtest86/src/acpi"
import "github.com/ystk/debian-memtest86/src/cpuid"
import "github.com/ystk/debian-memtest86/src/mem"
import "github.com/ystk/debian-memtest86/src/mptable"
import "github.com/ystk/debian-memtest86/src/trace"

// where the topology came from
type Source_t int

const (
	NONE Source_t = iota
	MP_DEFAULT
	MP_TABLE
	ACPI_MADT
)

func (s Source_t) String() string {
	switch s {
	case MP_DEFAULT:
		return "mp-default"
	case MP_TABLE:
		return "mp-table"
	case ACPI_MADT:
		return "acpi-madt"
	}
	return "none"
}

// the local APIC base of every default configuration
const DEFAULT_LAPIC uint64 = 0xfee00000

type Result_t struct {
	Reg *Registry_t
	// processor entries seen, sibling threads included
	Found  int
	Lapic  uint64
	Source Source_t
	// low APIC id bits that number the threads of a core
	Logical_bits uint32

	Fps  *mptable.Fps_t
	Mpc  *mptable.Config_t
	Madt *acpi.Madt_t
}

// Scan finds the processors: first from the MP floating pointer and its
// configuration table, then from the ACPI MADT. an MP table naming a
// single processor does not end the search. when nothing usable is found
// the result holds the boot processor alone.
func Scan(pm mem.Physmem_i, o cpuid.Oracle_i, max int,
	s trace.Sink_i) *Result_t {
	s.Trace("smp_find", uint64(max), 0)
	mp, ok := scan_mp(pm, max, s)
	if ok && (mp.Source == MP_DEFAULT || mp.Reg.Len() > 1) {
		return mp
	}
	if r, ok := scan_acpi(pm, o, max, s); ok {
		return r
	}
	if mp != nil {
		return mp
	}
	s.Trace("smp_none", 0, 0)
	return &Result_t{Reg: Mkregistry(max), Found: 1}
}

func scan_mp(pm mem.Physmem_i, max int, s trace.Sink_i) (*Result_t, bool) {
	fp, ok := mptable.Find(pm, s)
	if !ok {
		return nil, false
	}
	r := &Result_t{Reg: Mkregistry(max), Fps: fp}
	if fp.Default() {
		// default configuration: two processors, no table
		r.Reg.Set_bsp(0)
		r.Reg.Add(1)
		r.Found = 2
		r.Lapic = DEFAULT_LAPIC
		r.Source = MP_DEFAULT
		s.Trace("mp default", uint64(fp.Feature[0]), 0)
		return r, true
	}
	if fp.Config == 0 {
		return nil, false
	}
	c, err := mptable.Read_config(pm, fp.Config)
	if err != nil {
		s.Trace("mp reject", uint64(fp.Config), 0)
		return nil, false
	}
	r.Mpc = c
	r.Lapic = uint64(c.Lapic)
	r.Source = MP_TABLE
	// the BSP is ordinal 0 wherever it is listed
	for _, p := range c.Procs {
		if p.Bsp() {
			r.Reg.Set_bsp(uint32(p.Apicid))
			break
		}
	}
	for _, p := range c.Procs {
		r.Found++
		if !p.Bsp() {
			r.Reg.Add(uint32(p.Apicid))
		}
	}
	s.Trace("mp table", uint64(r.Reg.Len()), uint64(r.Found))
	return r, true
}

func scan_acpi(pm mem.Physmem_i, o cpuid.Oracle_i, max int,
	s trace.Sink_i) (*Result_t, bool) {
	md, err := acpi.Find_madt(pm, s)
	if err != nil {
		s.Trace("acpi reject", 0, 0)
		return nil, false
	}
	bits := cpuid.Logical_bits(o, cpuid.Identify(o))
	r := &Result_t{Reg: Mkregistry(max), Madt: md, Lapic: md.Lapic,
		Source: ACPI_MADT, Logical_bits: bits}
	s.Trace("madt bits", uint64(bits), 0)
	for _, l := range md.Lapics {
		if l.Enabled {
			r.add_thread(uint32(l.Apicid), s)
		}
	}
	s.Trace("madt found", uint64(r.Reg.Len()), uint64(r.Found))
	return r, true
}

// add_thread counts one enabled MADT processor. ids equal above the
// logical bits belong to threads of a core already in the registry; only
// the first thread of each core gets an ordinal. an id seen before is not
// counted again.
func (r *Result_t) add_thread(id uint32, s trace.Sink_i) {
	if r.Found == 0 {
		r.Reg.Set_bsp(id)
		r.Found++
		return
	}
	if r.Reg.Full() {
		r.Found++
		return
	}
	mask := ^(uint32(1)<<r.Logical_bits - 1)
	for _, have := range r.Reg.Ids() {
		if have&mask == id&mask {
			s.Trace("madt thread", uint64(id), uint64(have))
			if have != id {
				r.Found++
			}
			return
		}
	}
	r.Reg.Add(id)
	r.Found++
}
