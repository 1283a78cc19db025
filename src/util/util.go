package util

import "encoding/binary"

// Readn returns the little-endian n-byte field at off. firmware tables are
// little-endian regardless of the host.
func Readn(a []uint8, n int, off int) int {
	p := a[off : off+n]
	var ret int
	switch n {
	case 8:
		ret = int(binary.LittleEndian.Uint64(p))
	case 4:
		ret = int(binary.LittleEndian.Uint32(p))
	case 2:
		ret = int(binary.LittleEndian.Uint16(p))
	case 1:
		ret = int(p[0])
	default:
		panic("no")
	}
	return ret
}

func Writen(a []uint8, sz int, off int, val int) {
	p := a[off : off+sz]
	switch sz {
	case 8:
		binary.LittleEndian.PutUint64(p, uint64(val))
	case 4:
		binary.LittleEndian.PutUint32(p, uint32(val))
	case 2:
		binary.LittleEndian.PutUint16(p, uint16(val))
	case 1:
		p[0] = uint8(val)
	default:
		panic("no")
	}
}

// Cksum returns the byte sum of tbl modulo 256; a valid table sums to 0.
func Cksum(tbl []uint8) uint8 {
	var cksum uint8
	for _, c := range tbl {
		cksum += c
	}
	return cksum
}

// Fixsum stores into tbl[off] the value making the table sum to zero.
func Fixsum(tbl []uint8, off int) {
	tbl[off] = 0
	tbl[off] = -Cksum(tbl)
}

// Covering_bits returns the number of bits needed to index n things, i.e.
// the exponent of the smallest power of two >= n. zero for n <= 1.
func Covering_bits(n uint32) uint32 {
	if n == 0 {
		return 0
	}
	k := n*2 - 1
	bits := uint32(31)
	for k&(1<<bits) == 0 && bits > 0 {
		bits--
	}
	return bits
}
