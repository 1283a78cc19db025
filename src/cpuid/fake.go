package cpuid

import "encoding/binary"

// Fake_t answers from a table of canned leaves; missing leaves read as
// zero.
type Fake_t struct {
	leaves map[[2]uint32][4]uint32
}

func Mkfake(vendor string) *Fake_t {
	f := &Fake_t{leaves: make(map[[2]uint32][4]uint32)}
	var v [12]uint8
	copy(v[:], vendor)
	f.Set(LEAF_VENDOR, 0, 0,
		binary.LittleEndian.Uint32(v[0:]),
		binary.LittleEndian.Uint32(v[8:]),
		binary.LittleEndian.Uint32(v[4:]))
	return f
}

func (f *Fake_t) Set(leaf, sub uint32, a, b, c, d uint32) *Fake_t {
	f.leaves[[2]uint32{leaf, sub}] = [4]uint32{a, b, c, d}
	if leaf < LEAF_EXTMAX {
		r := f.leaves[[2]uint32{LEAF_VENDOR, 0}]
		if leaf > r[0] {
			r[0] = leaf
			f.leaves[[2]uint32{LEAF_VENDOR, 0}] = r
		}
	} else {
		r := f.leaves[[2]uint32{LEAF_EXTMAX, 0}]
		if leaf > r[0] {
			r[0] = leaf
			f.leaves[[2]uint32{LEAF_EXTMAX, 0}] = r
		}
	}
	return f
}

// Features sets leaf 1 with the HTT bit and logical processor count.
func (f *Fake_t) Features(htt bool, lcount uint32) *Fake_t {
	var d uint32
	if htt {
		d = FEAT_HTT
	}
	return f.Set(LEAF_FEAT, 0, 0, (lcount&0xff)<<16, 0, d)
}

func (f *Fake_t) Cpuid(leaf, sub uint32) (uint32, uint32, uint32, uint32) {
	r := f.leaves[[2]uint32{leaf, sub}]
	return r[0], r[1], r[2], r[3]
}
