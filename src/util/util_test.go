package util

import "testing"

func TestReadWriten(t *testing.T) {
	b := make([]uint8, 16)
	Writen(b, 4, 2, 0x11223344)
	if b[2] != 0x44 || b[5] != 0x11 {
		t.Fatalf("not little endian: %x", b)
	}
	if v := Readn(b, 4, 2); v != 0x11223344 {
		t.Fatalf("readn %#x", v)
	}
	Writen(b, 8, 8, 0x0102030405060708)
	if v := Readn(b, 8, 8); v != 0x0102030405060708 {
		t.Fatalf("readn 8 %#x", v)
	}
	Writen(b, 2, 0, 0xbeef)
	if v := Readn(b, 2, 0); v != 0xbeef {
		t.Fatalf("readn 2 %#x", v)
	}
	if v := Readn(b, 1, 1); v != 0xbe {
		t.Fatalf("readn 1 %#x", v)
	}
}

func TestFixsum(t *testing.T) {
	b := []uint8{1, 2, 3, 0, 250, 7}
	Fixsum(b, 3)
	if Cksum(b) != 0 {
		t.Fatalf("sum %v", Cksum(b))
	}
	b[0]++
	if Cksum(b) == 0 {
		t.Fatalf("mutation not detected")
	}
}

func TestCovering_bits(t *testing.T) {
	want := map[uint32]uint32{0: 0, 1: 0, 2: 1, 3: 2, 4: 2, 5: 3, 8: 3,
		9: 4, 16: 4, 255: 8}
	for n, w := range want {
		if g := Covering_bits(n); g != w {
			t.Fatalf("%v: got %v want %v", n, g, w)
		}
	}
}
