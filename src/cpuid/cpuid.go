// Package cpuid is the processor identification oracle: vendor, feature
// bits and the topology enumeration leaves the scanner needs to tell
// sibling threads from cores.
package cpuid

import "encoding/binary"

import "github.com/ystk/debian-memtest86/src/util"

// Oracle_i executes the identification instruction for a leaf and subleaf.
type Oracle_i interface {
	Cpuid(leaf, sub uint32) (eax, ebx, ecx, edx uint32)
}

const (
	LEAF_VENDOR  uint32 = 0x0
	LEAF_FEAT    uint32 = 0x1
	LEAF_CACHE   uint32 = 0x4
	LEAF_TOPO    uint32 = 0xb
	LEAF_EXTMAX  uint32 = 0x80000000
	LEAF_AMDSIZE uint32 = 0x80000008
)

// edx bit of leaf 1: more than one logical processor per package
const FEAT_HTT uint32 = 1 << 28

// Ident_t is the summary of the leaves read once at scan time.
type Ident_t struct {
	Vendor    string
	Max_basic uint32
	Max_ext   uint32
	Htt       bool
	// logical processors per package, leaf 1 ebx[23:16]
	Lcount uint32
}

func Identify(o Oracle_i) Ident_t {
	var id Ident_t
	max, b, c, d := o.Cpuid(LEAF_VENDOR, 0)
	id.Max_basic = max
	var v [12]uint8
	binary.LittleEndian.PutUint32(v[0:], b)
	binary.LittleEndian.PutUint32(v[4:], d)
	binary.LittleEndian.PutUint32(v[8:], c)
	id.Vendor = string(v[:])
	if max >= LEAF_FEAT {
		_, b, _, d = o.Cpuid(LEAF_FEAT, 0)
		id.Htt = d&FEAT_HTT != 0
		id.Lcount = (b >> 16) & 0xff
	}
	id.Max_ext, _, _, _ = o.Cpuid(LEAF_EXTMAX, 0)
	return id
}

func (id Ident_t) Amd() bool {
	return len(id.Vendor) > 0 && id.Vendor[0] == 'A'
}

func (id Ident_t) Intel() bool {
	return len(id.Vendor) > 0 && id.Vendor[0] == 'G'
}

// Logical_bits returns how many low-order bits of an APIC id distinguish
// the hardware threads of one core.
func Logical_bits(o Oracle_i, id Ident_t) uint32 {
	if !id.Htt {
		return 0
	}
	switch {
	case id.Amd():
		return amd_bits(o, id)
	case id.Intel():
		return intel_bits(o, id)
	}
	return 0
}

// AMD reports the width of the core field of the APIC id directly, or the
// core count when the width is zero.
func amd_bits(o Oracle_i, id Ident_t) uint32 {
	if id.Max_ext < LEAF_AMDSIZE {
		return 0
	}
	_, _, c, _ := o.Cpuid(LEAF_AMDSIZE, 0)
	var threads uint32
	if cbits := (c >> 12) & 0xf; cbits != 0 {
		threads = id.Lcount >> cbits
	} else {
		cores := (c & 0xff) + 1
		threads = id.Lcount / cores
	}
	return util.Covering_bits(threads)
}

// Intel enumerates the SMT level shift in leaf 0xb. without it the thread
// count is the ratio of logical processors to cores from leaf 4.
func intel_bits(o Oracle_i, id Ident_t) uint32 {
	if id.Max_basic >= LEAF_TOPO {
		if _, b, _, _ := o.Cpuid(LEAF_TOPO, 0); b != 0 {
			return topo_smt_shift(o)
		}
	}
	threads := id.Lcount
	if id.Max_basic >= LEAF_CACHE {
		a, _, _, _ := o.Cpuid(LEAF_CACHE, 0)
		cores := ((a >> 26) & 0x3f) + 1
		threads = id.Lcount / cores
	}
	return util.Covering_bits(threads)
}

// walks the extended topology levels until the SMT level or the
// terminating invalid level.
func topo_smt_shift(o Oracle_i) uint32 {
	const smt = 1
	for sub := uint32(0); sub < 8; sub++ {
		a, _, c, _ := o.Cpuid(LEAF_TOPO, sub)
		tp := (c >> 8) & 0xff
		if tp == 0 {
			break
		}
		if tp == smt {
			// bits to shift right to get the next level's id
			return a & 0x1f
		}
	}
	return 0
}
