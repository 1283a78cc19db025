// Smpscan reports the processors a PC's firmware tables describe. it scans
// physical memory through /dev/mem or a raw dump, or simulates a complete
// bring-up of a machine of a chosen shape.
package main

import "bytes"
import "flag"
import "fmt"
import "io"
import "os"
import "time"

import "github.com/mattn/go-tty"

import "github.com/ystk/debian-memtest86/src/cpuid"
import "github.com/ystk/debian-memtest86/src/inventory"
import "github.com/ystk/debian-memtest86/src/mem"
import "github.com/ystk/debian-memtest86/src/report"
import "github.com/ystk/debian-memtest86/src/smp"
import "github.com/ystk/debian-memtest86/src/trace"

// crlf_t turns line feeds into the carriage return, line feed pairs a
// raw serial line needs.
type crlf_t struct {
	w io.Writer
}

func (c crlf_t) Write(p []uint8) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []uint8("\n"),
		[]uint8("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

func main() {
	var op opts_t
	var mask, layout, dead string
	flag.StringVar(&op.mem, "mem", "", "scan physical memory through this device, e.g. /dev/mem")
	flag.StringVar(&op.image, "image", "", "scan a raw physical memory dump")
	flag.Uint64Var(&op.base, "base", 0, "physical address of the dump's first byte")
	flag.IntVar(&op.maxcpus, "maxcpus", smp.MAXCPUS, "processors to use")
	flag.StringVar(&mask, "mask", "", "ordinals to start, e.g. 1101 (ordinal 0 always runs)")
	flag.StringVar(&layout, "sim", "", "simulate a bring-up of CORES or CORESxTHREADS processors")
	flag.StringVar(&op.fw, "fw", "acpi", "tables of the simulated firmware: mp, acpi, both or none")
	flag.StringVar(&dead, "dead", "", "APIC ids of simulated processors that never start, e.g. 2,6")
	flag.IntVar(&op.rounds, "rounds", 100, "barrier rounds the simulated processors run")
	flag.BoolVar(&op.json, "json", false, "print the report as JSON")
	flag.StringVar(&op.db, "db", "", "record the report in this sqlite database")
	flag.StringVar(&op.console, "console", "", "mirror output to this serial device")
	flag.BoolVar(&op.debug, "debug", false, "print trace breadcrumbs")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: smpscan -mem /dev/mem | -image dump [-base addr] | -sim CORESxTHREADS [flags]\n")
		fmt.Fprintf(os.Stderr, "Finds the processors of a PC in its MP or ACPI tables\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	nmode := 0
	for _, s := range []string{op.mem, op.image, layout} {
		if s != "" {
			nmode++
		}
	}
	if nmode != 1 || flag.NArg() != 0 {
		flag.Usage()
		os.Exit(1)
	}
	var err error
	if op.mask, err = parse_mask(mask); err == nil {
		op.dead, err = parse_ids(dead)
	}
	if err == nil && layout != "" {
		op.sim, err = parse_layout(layout)
	}
	if err == nil {
		err = run(&op, os.Stdout)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "smpscan: %v\n", err)
		os.Exit(1)
	}
}

// run performs the scan or simulation op asks for and reports it to out.
// everything it opens is closed, and the console restored, before it
// returns.
func run(op *opts_t, out io.Writer) error {
	w := out
	if op.json {
		// keep the output for the document
		w = os.Stderr
	}
	var sink trace.Sink_i = trace.Mkconsole(w, op.debug)
	if op.console != "" {
		t, err := tty.OpenDevice(op.console)
		if err != nil {
			return fmt.Errorf("open %s: %w", op.console, err)
		}
		defer t.Close()
		restore := t.MustRaw()
		defer restore()
		sink = trace.Tee(sink, trace.Mkconsole(crlf_t{t.Output()}, op.debug))
	}

	var r *report.Report_t
	switch {
	case op.sim.cores != 0:
		var passes int64
		var err error
		r, passes, err = simulate(op, sink)
		if err != nil {
			return err
		}
		sink.Status(fmt.Sprintf("SMP: %d barrier passes", passes))
	case op.image != "":
		im, err := load_image(op.image, op.base)
		if err != nil {
			return err
		}
		r = scan(im, cpuid.Host_t{}, op.maxcpus, sink)
	case op.mem != "":
		dm, err := mem.Opendev(op.mem)
		if err != nil {
			return err
		}
		defer dm.Close()
		r = scan(dm, cpuid.Host_t{}, op.maxcpus, sink)
	default:
		return fmt.Errorf("nothing to scan")
	}

	summary(r, sink)
	if op.json {
		d, err := report.Marshal(r)
		if err != nil {
			return err
		}
		if _, err := out.Write(append(d, '\n')); err != nil {
			return err
		}
	}
	if op.db != "" {
		db, err := inventory.Open(op.db)
		if err != nil {
			return err
		}
		defer db.Close()
		n, err := db.Seen(r.Fingerprint)
		if err != nil {
			return err
		}
		id, err := db.Record(r, time.Now())
		if err != nil {
			return err
		}
		sink.Status(fmt.Sprintf("recorded scan %d; topology seen %d times before",
			id, n))
	}
	return nil
}
