package cpuid

import "testing"

func TestIdentify(t *testing.T) {
	f := Mkfake("GenuineIntel").Features(true, 16)
	id := Identify(f)
	if id.Vendor != "GenuineIntel" || !id.Intel() || id.Amd() {
		t.Fatalf("vendor %q", id.Vendor)
	}
	if !id.Htt || id.Lcount != 16 || id.Max_basic != LEAF_FEAT {
		t.Fatalf("ident %+v", id)
	}
}

func TestNoHtt(t *testing.T) {
	f := Mkfake("GenuineIntel").Features(false, 2)
	f.Set(LEAF_TOPO, 0, 1, 2, 1<<8, 0)
	if b := Logical_bits(f, Identify(f)); b != 0 {
		t.Fatalf("bits %v", b)
	}
}

func TestIntelTopoLeaf(t *testing.T) {
	f := Mkfake("GenuineIntel").Features(true, 16)
	// SMT level: shift 1, core level: shift 4
	f.Set(LEAF_TOPO, 0, 1, 2, 1<<8, 0)
	f.Set(LEAF_TOPO, 1, 4, 16, 2<<8|1, 0)
	if b := Logical_bits(f, Identify(f)); b != 1 {
		t.Fatalf("bits %v", b)
	}
}

func TestIntelLeaf4(t *testing.T) {
	f := Mkfake("GenuineIntel").Features(true, 8)
	// 2 cores per package -> 4 threads per core
	f.Set(LEAF_CACHE, 0, 1<<26, 0, 0, 0)
	if b := Logical_bits(f, Identify(f)); b != 2 {
		t.Fatalf("bits %v", b)
	}
}

func TestIntelLcountOnly(t *testing.T) {
	f := Mkfake("GenuineIntel").Features(true, 2)
	if b := Logical_bits(f, Identify(f)); b != 1 {
		t.Fatalf("bits %v", b)
	}
}

func TestAmdCoreBits(t *testing.T) {
	f := Mkfake("AuthenticAMD").Features(true, 16)
	// 8 cores: core id field 3 bits wide
	f.Set(LEAF_AMDSIZE, 0, 0, 0, 3<<12|7, 0)
	if b := Logical_bits(f, Identify(f)); b != 1 {
		t.Fatalf("bits %v", b)
	}
}

func TestAmdCoreCount(t *testing.T) {
	f := Mkfake("AuthenticAMD").Features(true, 8)
	f.Set(LEAF_AMDSIZE, 0, 0, 0, 3, 0)
	if b := Logical_bits(f, Identify(f)); b != 1 {
		t.Fatalf("bits %v", b)
	}
	// no extended leaf: no threads assumed
	g := Mkfake("AuthenticAMD").Features(true, 8)
	if b := Logical_bits(g, Identify(g)); b != 0 {
		t.Fatalf("bits %v", b)
	}
}

func TestOtherVendor(t *testing.T) {
	f := Mkfake("CentaurHauls").Features(true, 4)
	if b := Logical_bits(f, Identify(f)); b != 0 {
		t.Fatalf("bits %v", b)
	}
}
