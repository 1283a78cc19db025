// Package acpi locates the ACPI root pointer and follows it through the
// RSDT or XSDT to the multiple APIC description table.
package acpi

import "errors"
import "fmt"

import "github.com/ystk/debian-memtest86/src/mem"
import "github.com/ystk/debian-memtest86/src/trace"
import "github.com/ystk/debian-memtest86/src/util"

var (
	ErrSignature = errors.New("bad signature")
	ErrChecksum  = errors.New("bad checksum")
	ErrLength    = errors.New("bad length")
	ErrNotFound  = errors.New("table not found")
)

const RSDP_SIG = "RSD PTR "

// ACPI 5.2.5.3
const (
	rsdp_cksum = 8
	rsdp_rev   = 15
	rsdp_rsdt  = 16
	rsdp_len   = 20
	rsdp_xsdt  = 24
	RSDP_V1LEN = 20
	RSDP_V2LEN = 36
)

// common header of every system description table
const HDRLEN = 36

const (
	hdr_len   = 4
	hdr_cksum = 9
)

type Rsdp_t struct {
	Addr mem.Pa_t
	Rev  uint8
	Rsdt mem.Pa_t
	Xsdt mem.Pa_t
}

// a revision 0 pointer is checksummed over its first 20 bytes, later
// revisions over their declared length.
func isrsdp(pm mem.Physmem_i, pa mem.Pa_t) (*Rsdp_t, bool) {
	d, ok := pm.Dmaplen(pa, RSDP_V1LEN)
	if !ok || string(d[:8]) != RSDP_SIG {
		return nil, false
	}
	r := &Rsdp_t{Addr: pa, Rev: d[rsdp_rev]}
	r.Rsdt = mem.Pa_t(util.Readn(d, 4, rsdp_rsdt))
	if r.Rev == 0 {
		if util.Cksum(d) != 0 {
			return nil, false
		}
		return r, true
	}
	d, ok = pm.Dmaplen(pa, RSDP_V2LEN)
	if !ok {
		return nil, false
	}
	l := util.Readn(d, 4, rsdp_len)
	if l < RSDP_V2LEN {
		return nil, false
	}
	if d, ok = pm.Dmaplen(pa, l); !ok || util.Cksum(d) != 0 {
		return nil, false
	}
	r.Xsdt = mem.Pa_t(util.Readn(d, 8, rsdp_xsdt))
	return r, true
}

// Scan_rsdp searches [base, base+l) on 16 byte boundaries.
func Scan_rsdp(pm mem.Physmem_i, base mem.Pa_t, l int) (*Rsdp_t, bool) {
	for i := 0; i+RSDP_V1LEN <= l; i += 16 {
		if r, ok := isrsdp(pm, base+mem.Pa_t(i)); ok {
			return r, true
		}
	}
	return nil, false
}

// Find_rsdp searches the BIOS read-only area and then the first KB of the
// EBDA (ACPI 5.2.5.1).
func Find_rsdp(pm mem.Physmem_i, s trace.Sink_i) (*Rsdp_t, bool) {
	r, ok := Scan_rsdp(pm, 0xe0000, 0x20000)
	s.Trace("scan_rsdp0", 0xe0000, 0x20000)
	if ok {
		return r, true
	}
	if ebda := mem.Ebda(pm); ebda != 0 {
		s.Trace("scan_rsdp1", uint64(ebda), 0x400)
		return Scan_rsdp(pm, ebda, 0x400)
	}
	return nil, false
}

func acpierr(err error, format string, args ...interface{}) error {
	return fmt.Errorf("acpi: "+format+": %w", append(args, err)...)
}

// Map_table maps the table at pa checking its signature and checksum.
func Map_table(pm mem.Physmem_i, pa mem.Pa_t, sig string) ([]uint8, error) {
	if pa == 0 {
		return nil, acpierr(ErrNotFound, "null %s pointer", sig)
	}
	hdr, ok := pm.Dmaplen(pa, HDRLEN)
	if !ok {
		return nil, acpierr(ErrLength, "%s header at %#x unmapped", sig, pa)
	}
	if string(hdr[:4]) != sig {
		return nil, acpierr(ErrSignature, "want %s at %#x, got %q", sig,
			pa, hdr[:4])
	}
	l := util.Readn(hdr, 4, hdr_len)
	if l < HDRLEN {
		return nil, acpierr(ErrLength, "%s length %v", sig, l)
	}
	tbl, ok := pm.Dmaplen(pa, l)
	if !ok {
		return nil, acpierr(ErrLength, "%s: %v bytes at %#x unmapped",
			sig, l, pa)
	}
	if util.Cksum(tbl) != 0 {
		return nil, acpierr(ErrChecksum, "%s at %#x", sig, pa)
	}
	return tbl, nil
}

// Root_t is a validated RSDT or XSDT.
type Root_t struct {
	Sig string
	Tbl []uint8
	// width of each table pointer
	Ptrsz int
}

// Root follows the revision-appropriate pointer of r: the XSDT for
// revision 2 and later, the RSDT otherwise.
func Root(pm mem.Physmem_i, r *Rsdp_t) (*Root_t, error) {
	rt := &Root_t{Sig: "RSDT", Ptrsz: 4}
	pa := r.Rsdt
	if r.Rev >= 2 {
		rt.Sig, rt.Ptrsz = "XSDT", 8
		pa = r.Xsdt
	}
	tbl, err := Map_table(pm, pa, rt.Sig)
	if err != nil {
		return nil, err
	}
	rt.Tbl = tbl
	return rt, nil
}

// Ptrs returns the table pointers in order.
func (rt *Root_t) Ptrs() []mem.Pa_t {
	var ret []mem.Pa_t
	for p := rt.Tbl[HDRLEN:]; len(p) >= rt.Ptrsz; p = p[rt.Ptrsz:] {
		ret = append(ret, mem.Pa_t(util.Readn(p, rt.Ptrsz, 0)))
	}
	return ret
}

// Lookup calls f with each valid table whose signature is sig, in root
// order, until f returns true. tables failing validation are traced and
// skipped.
func (rt *Root_t) Lookup(pm mem.Physmem_i, sig string, s trace.Sink_i,
	f func(pa mem.Pa_t, tbl []uint8) bool) bool {
	for _, pa := range rt.Ptrs() {
		if pa == 0 {
			continue
		}
		h, ok := pm.Dmaplen(pa, 4)
		if !ok || string(h) != sig {
			continue
		}
		tbl, err := Map_table(pm, pa, sig)
		if err != nil {
			s.Trace("tbl reject", uint64(pa), 0)
			continue
		}
		if f(pa, tbl) {
			return true
		}
	}
	return false
}
