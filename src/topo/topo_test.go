package topo

import "testing"

import "github.com/ystk/debian-memtest86/src/cpuid"
import "github.com/ystk/debian-memtest86/src/fwimg"
import "github.com/ystk/debian-memtest86/src/mem"
import "github.com/ystk/debian-memtest86/src/trace"

const MAX = 32

// an Intel part with two threads per core
func smt2() cpuid.Oracle_i {
	return cpuid.Mkfake("GenuineIntel").Features(true, 2)
}

func nosmt() cpuid.Oracle_i {
	return cpuid.Mkfake("GenuineIntel").Features(false, 1)
}

func ids(t *testing.T, r *Result_t, want ...uint32) {
	got := r.Reg.Ids()
	if len(got) != len(want) {
		t.Fatalf("ids %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids %v want %v", got, want)
		}
	}
}

func TestNothing(t *testing.T) {
	im := fwimg.Mkmachine()
	r := Scan(im, nosmt(), MAX, trace.Nop)
	if r.Source != NONE || r.Reg.Len() != 1 || r.Found != 1 {
		t.Fatalf("result %+v", r)
	}
	if r.Reg.Status(0) != BOOTED {
		t.Fatalf("bsp status %v", r.Reg.Status(0))
	}
	// an address space with no memory at all
	r = Scan(mem.Mkimage(), nosmt(), MAX, trace.Nop)
	if r.Reg.Len() != 1 {
		t.Fatalf("empty image")
	}
}

func TestLegacy(t *testing.T) {
	im := fwimg.Mkmachine()
	cpus := []fwimg.Cpu_t{
		{Id: 2, Enabled: true},
		{Id: 6, Enabled: true},
		{Id: 4, Enabled: true, Bsp: true},
		{Id: 0, Enabled: true},
	}
	fwimg.Legacy(im, cpus)
	r := Scan(im, nosmt(), MAX, trace.Nop)
	if r.Source != MP_TABLE || r.Found != 4 {
		t.Fatalf("source %v found %v", r.Source, r.Found)
	}
	ids(t, r, 4, 2, 6, 0)
	if r.Lapic != uint64(fwimg.LAPIC_BASE) {
		t.Fatalf("lapic %#x", r.Lapic)
	}
	for i := 1; i < r.Reg.Len(); i++ {
		if r.Reg.Status(i) != NOTSTARTED {
			t.Fatalf("status %v", r.Reg.Status(i))
		}
	}
}

func TestLegacyCap(t *testing.T) {
	for _, k := range []int{1, 2, 5, 9} {
		for _, max := range []int{1, 3, 8} {
			im := fwimg.Mkmachine()
			fwimg.Legacy(im, fwimg.Cpus(k, 1, 0))
			r := Scan(im, nosmt(), max, trace.Nop)
			want := k
			if max < want {
				want = max
			}
			if r.Reg.Len() != want || r.Reg.Id(0) != 0 {
				t.Fatalf("k %v max %v: len %v", k, max, r.Reg.Len())
			}
			if r.Found != k {
				t.Fatalf("k %v max %v: found %v", k, max, r.Found)
			}
		}
	}
}

func TestLegacyCorrupt(t *testing.T) {
	im := fwimg.Mkmachine()
	tbl := fwimg.Legacy(im, fwimg.Cpus(4, 1, 0))
	if r := Scan(im, nosmt(), MAX, trace.Nop); r.Reg.Len() != 4 {
		t.Fatalf("intact table: %v", r.Reg.Len())
	}
	for i := range tbl {
		tbl[i] ^= 0x40
		r := Scan(im, nosmt(), MAX, trace.Nop)
		tbl[i] ^= 0x40
		if r.Source != NONE || r.Reg.Len() != 1 {
			t.Fatalf("byte %v: source %v len %v", i, r.Source,
				r.Reg.Len())
		}
	}
}

func TestLegacyCorruptFallsToAcpi(t *testing.T) {
	im := fwimg.Mkmachine()
	tbl := fwimg.Legacy(im, fwimg.Cpus(4, 1, 0))
	fwimg.Acpi(im, 2, fwimg.Cpus(3, 1, 0))
	tbl[50]++
	r := Scan(im, nosmt(), MAX, trace.Nop)
	if r.Source != ACPI_MADT || r.Reg.Len() != 3 {
		t.Fatalf("source %v len %v", r.Source, r.Reg.Len())
	}
}

func TestDefaultConfig(t *testing.T) {
	im := fwimg.Mkmachine()
	// a perfectly good table is ignored
	fwimg.Legacy(im, fwimg.Cpus(4, 1, 0))
	fwimg.Acpi(im, 0, fwimg.Cpus(8, 1, 0))
	mem.Write(im, fwimg.FPS_ADDR, fwimg.Floating(uint32(fwimg.MPC_ADDR), 1, 3))
	r := Scan(im, nosmt(), MAX, trace.Nop)
	if r.Source != MP_DEFAULT || r.Lapic != DEFAULT_LAPIC || r.Found != 2 {
		t.Fatalf("result %+v", r)
	}
	ids(t, r, 0, 1)
}

func TestSingleMpFallsThrough(t *testing.T) {
	im := fwimg.Mkmachine()
	fwimg.Legacy(im, fwimg.Cpus(1, 1, 0))
	r := Scan(im, nosmt(), MAX, trace.Nop)
	if r.Source != MP_TABLE || r.Reg.Len() != 1 {
		t.Fatalf("sole mp: %v %v", r.Source, r.Reg.Len())
	}
	fwimg.Acpi(im, 0, fwimg.Cpus(6, 1, 0))
	r = Scan(im, nosmt(), MAX, trace.Nop)
	if r.Source != ACPI_MADT || r.Reg.Len() != 6 {
		t.Fatalf("mp then acpi: %v %v", r.Source, r.Reg.Len())
	}
}

func TestMadtThreads(t *testing.T) {
	im := fwimg.Mkmachine()
	fwimg.Acpi(im, 2, fwimg.Cpus(4, 2, 1))
	r := Scan(im, smt2(), MAX, trace.Nop)
	if r.Source != ACPI_MADT || r.Logical_bits != 1 {
		t.Fatalf("source %v bits %v", r.Source, r.Logical_bits)
	}
	if r.Reg.Len() != 4 || r.Found != 8 {
		t.Fatalf("len %v found %v", r.Reg.Len(), r.Found)
	}
	ids(t, r, 0, 2, 4, 6)

	// without SMT every entry is its own core
	r = Scan(im, nosmt(), MAX, trace.Nop)
	if r.Reg.Len() != 8 || r.Found != 8 {
		t.Fatalf("nosmt len %v found %v", r.Reg.Len(), r.Found)
	}
}

func TestMadtSiblingPair(t *testing.T) {
	im := fwimg.Mkmachine()
	madt := fwimg.Madt(uint32(fwimg.LAPIC_BASE),
		fwimg.Madt_lapic(0, 0x10, true),
		fwimg.Madt_lapic(1, 0x20, true),
		fwimg.Madt_lapic(2, 0x21, true))
	fwimg.Acpi_tables(im, 0, madt)
	r := Scan(im, smt2(), MAX, trace.Nop)
	if r.Reg.Len() != 2 || r.Found != 3 {
		t.Fatalf("len %v found %v", r.Reg.Len(), r.Found)
	}
	ids(t, r, 0x10, 0x20)
}

func TestMadtDisabledAndDup(t *testing.T) {
	im := fwimg.Mkmachine()
	madt := fwimg.Madt(uint32(fwimg.LAPIC_BASE),
		fwimg.Madt_lapic(0, 1, false),
		fwimg.Madt_lapic(1, 3, true),
		fwimg.Madt_lapic(2, 5, true),
		fwimg.Madt_lapic(3, 5, true),
		fwimg.Madt_lapic(4, 7, false))
	fwimg.Acpi_tables(im, 0, madt)
	r := Scan(im, nosmt(), MAX, trace.Nop)
	ids(t, r, 3, 5)
	if r.Found != 2 {
		t.Fatalf("found %v", r.Found)
	}
}

func TestMadtCap(t *testing.T) {
	im := fwimg.Mkmachine()
	fwimg.Acpi(im, 0, fwimg.Cpus(6, 2, 1))
	r := Scan(im, smt2(), 3, trace.Nop)
	if r.Reg.Len() != 3 || r.Found != 12 {
		t.Fatalf("len %v found %v", r.Reg.Len(), r.Found)
	}
}

func TestRegistry(t *testing.T) {
	r := Mkregistry(3)
	r.Set_bsp(9)
	if o, ok := r.Add(4); !ok || o != 1 {
		t.Fatalf("add")
	}
	if _, ok := r.Add(9); ok {
		t.Fatalf("duplicate id")
	}
	r.Add(5)
	if _, ok := r.Add(6); ok || !r.Full() {
		t.Fatalf("over capacity")
	}
	if o, ok := r.Ord_of(5); !ok || o != 2 {
		t.Fatalf("ord_of")
	}
	r.Set_status(1, BOOTING)
	if !r.Cas_status(1, BOOTING, BOOTED) || r.Cas_status(1, BOOTING, TIMEDOUT) {
		t.Fatalf("cas")
	}
	if r.Nstatus(BOOTED) != 2 || r.Nstatus(NOTSTARTED) != 1 {
		t.Fatalf("nstatus")
	}
	r.Truncate(2)
	if r.Len() != 2 {
		t.Fatalf("truncate")
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("bsp status changed")
		}
	}()
	r.Set_status(0, TIMEDOUT)
}
