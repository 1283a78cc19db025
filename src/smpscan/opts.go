package main

import "fmt"
import "strconv"
import "strings"

import "github.com/ystk/debian-memtest86/src/smp"
import "github.com/ystk/debian-memtest86/src/util"

type opts_t struct {
	mem     string
	image   string
	base    uint64
	maxcpus int
	mask    []bool
	sim     layout_t
	fw      string
	dead    []uint32
	rounds  int
	json    bool
	db      string
	console string
	debug   bool
}

// layout_t is the shape of a simulated machine.
type layout_t struct {
	cores   int
	threads int
	tbits   uint
}

func (l layout_t) ncpus() int {
	return l.cores * l.threads
}

// parse_layout parses "CORES" or "CORESxTHREADS".
func parse_layout(s string) (layout_t, error) {
	var l layout_t
	cs, ts, smt := strings.Cut(s, "x")
	c, err := strconv.Atoi(cs)
	if err != nil || c < 1 {
		return l, fmt.Errorf("bad core count %q", cs)
	}
	t := 1
	if smt {
		t, err = strconv.Atoi(ts)
		if err != nil || t < 1 {
			return l, fmt.Errorf("bad thread count %q", ts)
		}
	}
	l.cores, l.threads = c, t
	l.tbits = uint(util.Covering_bits(uint32(t)))
	if l.ncpus() > smp.MAXCPUS || uint32(c-1)<<l.tbits > 0xff {
		return l, fmt.Errorf("%s does not fit %d xAPIC processors", s,
			smp.MAXCPUS)
	}
	return l, nil
}

// parse_mask turns "1101" into the selection of ordinals 0, 1 and 3.
func parse_mask(s string) ([]bool, error) {
	if s == "" {
		return nil, nil
	}
	ret := make([]bool, len(s))
	for i, c := range s {
		switch c {
		case '1':
			ret[i] = true
		case '0':
		default:
			return nil, fmt.Errorf("bad mask digit %q", c)
		}
	}
	return ret, nil
}

func parse_ids(s string) ([]uint32, error) {
	if s == "" {
		return nil, nil
	}
	var ret []uint32
	for _, f := range strings.Split(s, ",") {
		v, err := strconv.ParseUint(strings.TrimSpace(f), 0, 8)
		if err != nil {
			return nil, fmt.Errorf("bad APIC id %q", f)
		}
		ret = append(ret, uint32(v))
	}
	return ret, nil
}
