package mptable

import "errors"
import "testing"

import "github.com/ystk/debian-memtest86/src/fwimg"
import "github.com/ystk/debian-memtest86/src/mem"
import "github.com/ystk/debian-memtest86/src/trace"

func TestFindLegacy(t *testing.T) {
	im := fwimg.Mkmachine()
	fwimg.Legacy(im, fwimg.Cpus(4, 1, 0))
	f, ok := Find(im, trace.Nop)
	if !ok {
		t.Fatalf("not found")
	}
	if f.Addr != fwimg.FPS_ADDR || f.Config != fwimg.MPC_ADDR || f.Rev != 4 {
		t.Fatalf("fps %+v", f)
	}
	if f.Default() {
		t.Fatalf("default")
	}
	c, err := Read_config(im, f.Config)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if len(c.Procs) != 4 || !c.Procs[0].Bsp() || c.Procs[1].Bsp() {
		t.Fatalf("procs %v", c.Procs)
	}
	if c.Lapic != uint32(fwimg.LAPIC_BASE) || c.Nbus != 2 ||
		c.Nioapic != 1 || c.Nintsrc != 1 || c.Nlint != 1 {
		t.Fatalf("config %+v", c)
	}
}

func TestWindows(t *testing.T) {
	im := fwimg.Mkmachine()
	if len(Windows(im)) != 3 {
		t.Fatalf("ebda window without ebda")
	}
	fwimg.Set_ebda(im, fwimg.EBDA_SEG)
	w := Windows(im)
	if len(w) != 4 || w[3].Base != 0x9fc00 {
		t.Fatalf("windows %v", w)
	}
	// only the EBDA holds it
	ebda := mem.Pa_t(0x9fc00 + 0x40)
	mem.Write(im, ebda, fwimg.Floating(0, 1, 5))
	f, ok := Find(im, trace.Nop)
	if !ok || f.Addr != ebda || !f.Default() {
		t.Fatalf("ebda fps %+v %v", f, ok)
	}
}

func TestFpsReject(t *testing.T) {
	bad := map[string]func([]uint8){
		"sig":  func(d []uint8) { d[0] = 'X' },
		"len":  func(d []uint8) { d[8] = 2; d[10]-- },
		"sum":  func(d []uint8) { d[12]++ },
		"rev":  func(d []uint8) { d[9] = 2; d[10] -= 1 },
		"rev0": func(d []uint8) { d[9] = 0; d[10] += 1 },
	}
	for name, mut := range bad {
		im := fwimg.Mkmachine()
		d := fwimg.Floating(0x1000, 1, 0)
		mut(d)
		mem.Write(im, 0xf0000, d)
		if _, ok := Find(im, trace.Nop); ok {
			t.Fatalf("%v: accepted", name)
		}
	}
}

func TestConfigChecksum(t *testing.T) {
	im := fwimg.Mkmachine()
	tbl := fwimg.Legacy(im, fwimg.Cpus(2, 1, 0))
	for i := range tbl {
		tbl[i]++
		_, err := Read_config(im, fwimg.MPC_ADDR)
		tbl[i]--
		if err == nil {
			t.Fatalf("byte %v: corruption accepted", i)
		}
	}
	if _, err := Read_config(im, fwimg.MPC_ADDR); err != nil {
		t.Fatalf("restored table: %v", err)
	}
}

func TestConfigErrors(t *testing.T) {
	p := fwimg.Mpproc(1, 0x14, false, true)
	old := fwimg.Mpproc(1, 0x01, false, true)
	unk := []uint8{7, 0, 0, 0, 0, 0, 0, 0}

	cases := []struct {
		tbl []uint8
		err error
	}{
		{fwimg.Mpconfig(0xfee00000, p, old), ErrApicVersion},
		{fwimg.Mpconfig(0xfee00000, p, unk), ErrEntryType},
		{fwimg.Mpconfig(0xfee00000, p, []uint8{0, 1, 0x14}), ErrLength},
		{[]uint8("PCMP"), ErrLength},
	}
	for i, c := range cases {
		_, err := Parse_config(c.tbl)
		if !errors.Is(err, c.err) {
			t.Fatalf("case %v: %v", i, err)
		}
	}
	tbl := fwimg.Mpconfig(0xfee00000, p)
	copy(tbl, "XCMP")
	if _, err := Parse_config(tbl); !errors.Is(err, ErrSignature) {
		t.Fatalf("sig: %v", err)
	}
	im := fwimg.Mkmachine()
	if _, err := Read_config(im, 0x7000); !errors.Is(err, ErrSignature) {
		t.Fatalf("empty memory: %v", err)
	}
	if _, err := Read_config(im, 0x200000); !errors.Is(err, ErrLength) {
		t.Fatalf("unmapped: %v", err)
	}
}
