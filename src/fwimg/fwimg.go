// Package fwimg synthesizes firmware images: physical memory laid out the
// way a PC BIOS leaves it, with valid MP and ACPI tables describing a
// chosen set of processors. tests and the simulator scan these images.
package fwimg

import "github.com/ystk/debian-memtest86/src/mem"
import "github.com/ystk/debian-memtest86/src/util"

// where the builders place things
const (
	LOWMEM_END mem.Pa_t = 0xa0000
	ROM_BASE   mem.Pa_t = 0xe0000
	ROM_END    mem.Pa_t = 0x100000
	ACPI_BASE  mem.Pa_t = 0x7fe0000
	ACPI_LEN   int      = 0x10000
	LAPIC_BASE mem.Pa_t = 0xfee00000

	FPS_ADDR   mem.Pa_t = 0xf5a00
	MPC_ADDR   mem.Pa_t = 0xf5b00
	RSDP_ADDR  mem.Pa_t = 0xe0400
	RSDT_ADDR  mem.Pa_t = ACPI_BASE
	XSDT_ADDR  mem.Pa_t = ACPI_BASE + 0x100
	FACP_ADDR  mem.Pa_t = ACPI_BASE + 0x800
	MADT_ADDR  mem.Pa_t = ACPI_BASE + 0x1000
	EBDA_SEG            = 0x9fc0
)

// Mkmachine returns an empty PC address space: base memory, the BIOS area,
// an ACPI reclaim area and the local APIC page.
func Mkmachine() *mem.Image_t {
	im := mem.Mkimage()
	im.Add(0, int(LOWMEM_END))
	im.Add(ROM_BASE, int(ROM_END-ROM_BASE))
	im.Add(ACPI_BASE, ACPI_LEN)
	im.Add(LAPIC_BASE, mem.PGSIZE)
	return im
}

// Set_ebda records the EBDA segment in the BIOS data area.
func Set_ebda(im *mem.Image_t, seg int) {
	b, ok := im.Dmaplen(mem.BDA_EBDA, 2)
	if !ok {
		panic("no bda")
	}
	util.Writen(b, 2, 0, seg)
}

func put(im *mem.Image_t, pa mem.Pa_t, d []uint8) {
	if !mem.Write(im, pa, d) {
		panic("unbacked placement")
	}
}

// Cpu_t describes one processor to put in the tables.
type Cpu_t struct {
	Id      uint32
	Bsp     bool
	Enabled bool
}

// Cpus returns ncores*nthreads enabled processors whose APIC ids carry the
// thread number in the low tbits bits. the first is the BSP.
func Cpus(ncores, nthreads int, tbits uint) []Cpu_t {
	var ret []Cpu_t
	for c := 0; c < ncores; c++ {
		for th := 0; th < nthreads; th++ {
			id := uint32(c)<<tbits | uint32(th)
			ret = append(ret, Cpu_t{Id: id, Enabled: true,
				Bsp: c == 0 && th == 0})
		}
	}
	return ret
}

// Legacy installs a floating pointer structure and configuration table
// listing cpus. it returns the table so callers can corrupt it.
func Legacy(im *mem.Image_t, cpus []Cpu_t) []uint8 {
	var ents [][]uint8
	for _, c := range cpus {
		ents = append(ents, Mpproc(uint8(c.Id), 0x14, c.Bsp, c.Enabled))
	}
	ents = append(ents, Mpbus(0, "PCI   "), Mpbus(1, "ISA   "),
		Mpioapic(uint8(len(cpus)), 0xfec00000),
		Mpintsrc(0, 1, 2), Mplintsrc(0, 0))
	cfg := Mpconfig(uint32(LAPIC_BASE), ents...)
	put(im, MPC_ADDR, cfg)
	put(im, FPS_ADDR, Floating(uint32(MPC_ADDR), 4, 0))
	b, _ := im.Dmaplen(MPC_ADDR, len(cfg))
	return b
}

// Acpi installs an RSDP of the given revision, an RSDT (revision 0) or
// XSDT (otherwise) and a MADT listing cpus. it returns the installed MADT.
func Acpi(im *mem.Image_t, rev uint8, cpus []Cpu_t) []uint8 {
	var ents [][]uint8
	for i, c := range cpus {
		ents = append(ents, Madt_lapic(uint8(i), uint8(c.Id), c.Enabled))
	}
	ents = append(ents, Madt_ioapic(uint8(len(cpus)), 0xfec00000, 0),
		Madt_override(0, 0, 2, 0))
	madt := Madt(uint32(LAPIC_BASE), ents...)
	Acpi_tables(im, rev, madt)
	b, _ := im.Dmaplen(MADT_ADDR, len(madt))
	return b
}

// Acpi_tables installs the root pointer chain ending at madt.
func Acpi_tables(im *mem.Image_t, rev uint8, madt []uint8) {
	put(im, MADT_ADDR, madt)
	// another table listed ahead of the MADT
	facp := Sdt("FACP", 4, make([]uint8, 80))
	put(im, FACP_ADDR, facp)
	var rsdp []uint8
	if rev == 0 {
		put(im, RSDT_ADDR, Rsdt([]uint32{uint32(FACP_ADDR),
			uint32(MADT_ADDR)}))
		rsdp = Rsdp(0, uint32(RSDT_ADDR), 0)
	} else {
		put(im, XSDT_ADDR, Xsdt([]uint64{uint64(FACP_ADDR),
			uint64(MADT_ADDR)}))
		rsdp = Rsdp(rev, 0, uint64(XSDT_ADDR))
	}
	put(im, RSDP_ADDR, rsdp)
}
