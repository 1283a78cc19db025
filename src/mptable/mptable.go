// Package mptable finds and parses the legacy multiprocessor configuration:
// the floating pointer structure and the configuration table it points to
// (MultiProcessor Specification 1.4, chapter 4).
package mptable

import "errors"
import "fmt"

import "github.com/ystk/debian-memtest86/src/mem"
import "github.com/ystk/debian-memtest86/src/trace"
import "github.com/ystk/debian-memtest86/src/util"

var (
	ErrSignature   = errors.New("bad signature")
	ErrChecksum    = errors.New("bad checksum")
	ErrLength      = errors.New("bad length")
	ErrEntryType   = errors.New("unknown entry type")
	ErrApicVersion = errors.New("unsupported local APIC version")
)

const FPS_SIG = "_MP_"
const FPS_LEN = 16

// floating pointer structure offsets
const (
	fps_config  = 4
	fps_len     = 8
	fps_rev     = 9
	fps_cksum   = 10
	fps_feature = 11
)

// Fps_t is a validated floating pointer structure.
type Fps_t struct {
	Addr    mem.Pa_t
	Config  mem.Pa_t
	Rev     uint8
	Feature [5]uint8
}

// Default reports whether the BIOS selected one of the default
// configurations instead of providing a table. all of them have two
// processors with APIC ids 0 and 1.
func (f *Fps_t) Default() bool {
	return f.Feature[0] > 0 && f.Feature[0] <= 7
}

func isfps(d []uint8) bool {
	if string(d[:4]) != FPS_SIG {
		return false
	}
	if d[fps_len] != 1 {
		return false
	}
	if util.Cksum(d[:FPS_LEN]) != 0 {
		return false
	}
	rev := d[fps_rev]
	return rev == 1 || rev == 4
}

func mkfps(pa mem.Pa_t, d []uint8) *Fps_t {
	f := &Fps_t{Addr: pa}
	f.Config = mem.Pa_t(util.Readn(d, 4, fps_config))
	f.Rev = d[fps_rev]
	copy(f.Feature[:], d[fps_feature:FPS_LEN])
	return f
}

// Scan_window searches [base, base+l) on 16 byte boundaries.
func Scan_window(pm mem.Physmem_i, base mem.Pa_t, l int) (*Fps_t, bool) {
	for i := 0; i+FPS_LEN <= l; i += FPS_LEN {
		pa := base + mem.Pa_t(i)
		d, ok := pm.Dmaplen(pa, FPS_LEN)
		if !ok {
			continue
		}
		if isfps(d) {
			return mkfps(pa, d), true
		}
	}
	return nil, false
}

type Window_t struct {
	Base mem.Pa_t
	Len  int
}

// Windows returns the places chapter 4 says the structure may be: the
// first KB of memory, the last KB of base memory, the BIOS ROM and the
// first KB of the EBDA.
func Windows(pm mem.Physmem_i) []Window_t {
	w := []Window_t{
		{0, 0x400},
		{639 * 0x400, 0x400},
		{0xf0000, 0x10000},
	}
	if ebda := mem.Ebda(pm); ebda != 0 {
		w = append(w, Window_t{ebda, 0x400})
	}
	return w
}

// Find returns the first floating pointer structure in Windows.
func Find(pm mem.Physmem_i, s trace.Sink_i) (*Fps_t, bool) {
	for _, w := range Windows(pm) {
		s.Trace("scan_fps", uint64(w.Base), uint64(w.Len))
		if f, ok := Scan_window(pm, w.Base, w.Len); ok {
			s.Trace("scan found", uint64(f.Rev), uint64(f.Addr))
			return f, true
		}
	}
	return nil, false
}

func mperr(err error, format string, args ...interface{}) error {
	return fmt.Errorf("mp table: "+format+": %w", append(args, err)...)
}
