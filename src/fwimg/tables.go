package fwimg

import "github.com/ystk/debian-memtest86/src/util"

// Floating returns a 16 byte MP floating pointer structure.
func Floating(config uint32, rev uint8, feature0 uint8) []uint8 {
	d := make([]uint8, 16)
	copy(d, "_MP_")
	util.Writen(d, 4, 4, int(config))
	d[8] = 1
	d[9] = rev
	d[11] = feature0
	util.Fixsum(d, 10)
	return d
}

func Mpproc(apicid uint8, ver uint8, bsp bool, enabled bool) []uint8 {
	d := make([]uint8, 20)
	d[0] = 0
	d[1] = apicid
	d[2] = ver
	if enabled {
		d[3] |= 1
	}
	if bsp {
		d[3] |= 2
	}
	// stepping/model/family of a P6
	util.Writen(d, 4, 4, 0x6f1)
	return d
}

func Mpbus(id uint8, name string) []uint8 {
	d := make([]uint8, 8)
	d[0] = 1
	d[1] = id
	copy(d[2:8], name)
	return d
}

func Mpioapic(id uint8, addr uint32) []uint8 {
	d := make([]uint8, 8)
	d[0] = 2
	d[1] = id
	d[2] = 0x11
	d[3] = 1
	util.Writen(d, 4, 4, int(addr))
	return d
}

func Mpintsrc(bus, irq, pin uint8) []uint8 {
	d := make([]uint8, 8)
	d[0] = 3
	d[4] = bus
	d[5] = irq
	d[7] = pin
	return d
}

func Mplintsrc(irq, lint uint8) []uint8 {
	d := make([]uint8, 8)
	d[0] = 4
	d[1] = 3
	d[5] = irq
	d[6] = 0xff
	d[7] = lint
	return d
}

// Mpconfig returns a configuration table header followed by ents, with
// length, entry count and checksum filled in.
func Mpconfig(lapic uint32, ents ...[]uint8) []uint8 {
	d := make([]uint8, 44)
	copy(d, "PCMP")
	d[6] = 4
	copy(d[8:16], "MEMTEST ")
	copy(d[16:28], "SYNTHETIC   ")
	util.Writen(d, 4, 36, int(lapic))
	for _, e := range ents {
		d = append(d, e...)
	}
	util.Writen(d, 2, 4, len(d))
	util.Writen(d, 2, 34, len(ents))
	util.Fixsum(d, 7)
	return d
}

// Rsdp returns a revision 0 (20 byte) or revision >= 2 (36 byte) root
// pointer with both checksums set.
func Rsdp(rev uint8, rsdt uint32, xsdt uint64) []uint8 {
	l := 20
	if rev != 0 {
		l = 36
	}
	d := make([]uint8, l)
	copy(d, "RSD PTR ")
	copy(d[9:15], "MTEST ")
	d[15] = rev
	util.Writen(d, 4, 16, int(rsdt))
	util.Fixsum(d[:20], 8)
	if rev != 0 {
		util.Writen(d, 4, 20, l)
		util.Writen(d, 8, 24, int(xsdt))
		util.Fixsum(d, 32)
	}
	return d
}

// Sdt returns a system description table: the 36 byte header and body.
func Sdt(sig string, rev uint8, body []uint8) []uint8 {
	d := make([]uint8, 36, 36+len(body))
	copy(d, sig)
	d[8] = rev
	copy(d[10:16], "MTEST ")
	copy(d[16:24], "SYNTH   ")
	d = append(d, body...)
	util.Writen(d, 4, 4, len(d))
	util.Fixsum(d, 9)
	return d
}

func Rsdt(ptrs []uint32) []uint8 {
	body := make([]uint8, 4*len(ptrs))
	for i, p := range ptrs {
		util.Writen(body, 4, 4*i, int(p))
	}
	return Sdt("RSDT", 1, body)
}

func Xsdt(ptrs []uint64) []uint8 {
	body := make([]uint8, 8*len(ptrs))
	for i, p := range ptrs {
		util.Writen(body, 8, 8*i, int(p))
	}
	return Sdt("XSDT", 1, body)
}

// Madt returns a multiple APIC description table holding ents.
func Madt(lapic uint32, ents ...[]uint8) []uint8 {
	body := make([]uint8, 8)
	util.Writen(body, 4, 0, int(lapic))
	// PC-AT compatible dual 8259s present
	body[4] = 1
	for _, e := range ents {
		body = append(body, e...)
	}
	return Sdt("APIC", 3, body)
}

func Madt_lapic(procid uint8, apicid uint8, enabled bool) []uint8 {
	d := []uint8{0, 8, procid, apicid, 0, 0, 0, 0}
	if enabled {
		d[4] = 1
	}
	return d
}

func Madt_ioapic(id uint8, addr uint32, gsibase uint32) []uint8 {
	d := make([]uint8, 12)
	d[0], d[1], d[2] = 1, 12, id
	util.Writen(d, 4, 4, int(addr))
	util.Writen(d, 4, 8, int(gsibase))
	return d
}

func Madt_override(bus, src uint8, gsi uint32, flags uint16) []uint8 {
	d := make([]uint8, 10)
	d[0], d[1], d[2], d[3] = 2, 10, bus, src
	util.Writen(d, 4, 4, int(gsi))
	util.Writen(d, 2, 8, int(flags))
	return d
}

func Madt_lapic_addr(addr uint64) []uint8 {
	d := make([]uint8, 12)
	d[0], d[1] = 5, 12
	util.Writen(d, 8, 4, int(addr))
	return d
}

func Madt_x2apic(id uint32, uid uint32, enabled bool) []uint8 {
	d := make([]uint8, 16)
	d[0], d[1] = 9, 16
	util.Writen(d, 4, 4, int(id))
	if enabled {
		d[8] = 1
	}
	util.Writen(d, 4, 12, int(uid))
	return d
}
