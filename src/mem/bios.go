package mem

import "github.com/ystk/debian-memtest86/src/util"

// BIOS data area word holding the segment of the extended BIOS data area
const BDA_EBDA Pa_t = 0x40e

// Ebda returns the physical address of the extended BIOS data area, or 0
// if the BIOS does not record one.
func Ebda(pm Physmem_i) Pa_t {
	b, ok := pm.Dmaplen(BDA_EBDA, 2)
	if !ok {
		return 0
	}
	return Pa_t(util.Readn(b, 2, 0)) << 4
}
