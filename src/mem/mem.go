package mem

import "sort"
import "unsafe"

// physical address
type Pa_t uintptr

const PGSIZE int = 1 << 12
const PGOFFSET Pa_t = 0xfff
const PGMASK Pa_t = ^(PGOFFSET)

// Physmem_i grants access to physical memory. Dmaplen returns a slice
// aliasing [p, p+l) and whether the whole range is backed.
type Physmem_i interface {
	Dmaplen(p Pa_t, l int) ([]uint8, bool)
}

// Dmaplen32 returns the 32-bit words of [p, p+l). both p and l must be
// multiples of 4.
func Dmaplen32(pm Physmem_i, p Pa_t, l int) ([]uint32, bool) {
	if p%4 != 0 || l%4 != 0 {
		panic("not 32bit aligned")
	}
	b, ok := pm.Dmaplen(p, l)
	if !ok || len(b) == 0 {
		return nil, false
	}
	if uintptr(unsafe.Pointer(&b[0]))%4 != 0 {
		return nil, false
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&b[0])), l/4), true
}

type region_t struct {
	base Pa_t
	data []uint8
}

// Image_t is a sparse physical address space made of disjoint regions. it
// backs firmware images used by tests, simulations and offline scans of
// memory dumps.
type Image_t struct {
	regs []region_t
}

func Mkimage() *Image_t {
	return &Image_t{}
}

// Add backs [base, base+sz) with zeroed memory and returns it.
func (im *Image_t) Add(base Pa_t, sz int) []uint8 {
	if sz <= 0 {
		panic("bad region size")
	}
	for _, r := range im.regs {
		rend := r.base + Pa_t(len(r.data))
		if base < rend && r.base < base+Pa_t(sz) {
			panic("overlapping regions")
		}
	}
	// keep word alignment for Dmaplen32
	buf := make([]uint64, (sz+7)/8)
	d := unsafe.Slice((*uint8)(unsafe.Pointer(&buf[0])), len(buf)*8)[:sz]
	im.regs = append(im.regs, region_t{base: base, data: d})
	sort.Slice(im.regs, func(i, j int) bool {
		return im.regs[i].base < im.regs[j].base
	})
	return d
}

// Load backs memory starting at base with a copy of d.
func (im *Image_t) Load(base Pa_t, d []uint8) {
	copy(im.Add(base, len(d)), d)
}

func (im *Image_t) Dmaplen(p Pa_t, l int) ([]uint8, bool) {
	if l < 0 {
		return nil, false
	}
	i := sort.Search(len(im.regs), func(i int) bool {
		r := im.regs[i]
		return r.base+Pa_t(len(r.data)) > p
	})
	if i == len(im.regs) {
		return nil, false
	}
	r := im.regs[i]
	if p < r.base || p+Pa_t(l) > r.base+Pa_t(len(r.data)) {
		return nil, false
	}
	off := p - r.base
	return r.data[off : off+Pa_t(l)], true
}

// Write copies d to physical address p. it fails if the range is not
// entirely backed.
func Write(pm Physmem_i, p Pa_t, d []uint8) bool {
	dst, ok := pm.Dmaplen(p, len(d))
	if !ok {
		return false
	}
	copy(dst, d)
	return true
}
