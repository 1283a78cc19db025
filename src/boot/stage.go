package boot

import "github.com/ystk/debian-memtest86/src/mem"
import "github.com/ystk/debian-memtest86/src/util"

// low memory used by the trampoline. a processor leaving INIT runs in real
// mode and can only reach the first megabyte.
const (
	CODE_ADDR mem.Pa_t = 0x9000
	GDTP_ADDR mem.Pa_t = 0x9100
	GDT_ADDR  mem.Pa_t = 0x9110
	// the first four descriptors
	GDT_LEN = 4 * 8
)

// Stub_t is relocatable wake-up code. the 16-bit operand at Lgdt_off is
// patched to point at the staged GDT pointer.
type Stub_t struct {
	Code     []uint8
	Lgdt_off int
}

// Trampoline loads the staged GDT, sets CR0.PE and halts. a workload
// supplies its own stub that continues into its entry point.
var Trampoline = Stub_t{
	Code: []uint8{
		0x0f, 0x01, 0x16, 0, 0, // lgdt [GDTP_ADDR]
		0xfa,                   // cli
		0x0f, 0x20, 0xc0,       // mov eax, cr0
		0x66, 0x83, 0xc8, 0x01, // or eax, 1
		0x0f, 0x22, 0xc0,       // mov cr0, eax
		0xf4,                   // hlt
		0xeb, 0xfd,             // jmp hlt
	},
	Lgdt_off: 3,
}

// Flat_gdt returns null, 32-bit code, 32-bit data and 16-bit code
// descriptors covering all of memory.
func Flat_gdt() []uint8 {
	g := make([]uint8, GDT_LEN)
	util.Writen(g, 8, 8, 0x00cf9a000000ffff)
	util.Writen(g, 8, 16, 0x00cf92000000ffff)
	util.Writen(g, 8, 24, 0x00009a000000ffff)
	return g
}

// Stage copies the stub to CODE_ADDR and a GDT copy to GDT_ADDR, then
// links the stub to the copy through the pointer at GDTP_ADDR.
func Stage(pm mem.Physmem_i, st Stub_t, gdt []uint8) bool {
	if len(st.Code) > int(GDTP_ADDR-CODE_ADDR) || st.Lgdt_off < 0 ||
		st.Lgdt_off+2 > len(st.Code) || len(gdt) < GDT_LEN {
		return false
	}
	code, ok := pm.Dmaplen(CODE_ADDR, len(st.Code))
	if !ok {
		return false
	}
	gp, ok1 := pm.Dmaplen(GDTP_ADDR, 6)
	g, ok2 := pm.Dmaplen(GDT_ADDR, GDT_LEN)
	if !ok1 || !ok2 {
		return false
	}
	copy(code, st.Code)
	util.Writen(code, 2, st.Lgdt_off, int(GDTP_ADDR))
	// the limit is the size, as the machine's own GDT pointer has it
	util.Writen(gp, 2, 0, GDT_LEN)
	util.Writen(gp, 4, 2, int(GDT_ADDR))
	copy(g, gdt[:GDT_LEN])
	return true
}
