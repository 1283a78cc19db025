package inventory

import "path/filepath"
import "testing"
import "time"

import "github.com/ystk/debian-memtest86/src/report"

func TestRecord(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "scans.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	t0 := time.Unix(1700000000, 0)
	a := &report.Report_t{Source: "mp-table", Found: 4, Active: 4,
		Fingerprint: "aa", Cpus: []report.Cpu_t{{Ord: 0, Apicid: 0,
			Status: "booted"}}}
	b := &report.Report_t{Source: "acpi-madt", Found: 8, Active: 3,
		Fingerprint: "bb"}
	for i, r := range []*report.Report_t{a, b, a} {
		if _, err := db.Record(r, t0.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("record %v: %v", i, err)
		}
	}
	ents, err := db.Last(2)
	if err != nil || len(ents) != 2 {
		t.Fatalf("last: %v %v", len(ents), err)
	}
	if ents[0].Report.Source != "mp-table" || ents[1].Report.Found != 8 {
		t.Fatalf("order %+v %+v", ents[0].Report, ents[1].Report)
	}
	if !ents[0].At.Equal(t0.Add(2*time.Second)) || ents[0].Id <= ents[1].Id {
		t.Fatalf("at %v id %v", ents[0].At, ents[0].Id)
	}
	if len(ents[0].Report.Cpus) != 1 {
		t.Fatalf("document not kept")
	}
	if n, err := db.Seen("aa"); err != nil || n != 2 {
		t.Fatalf("seen %v %v", n, err)
	}
	if n, _ := db.Seen("cc"); n != 0 {
		t.Fatalf("seen unknown %v", n)
	}
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scans.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.Record(&report.Report_t{Source: "none", Found: 1, Active: 1,
		Fingerprint: "x"}, time.Now())
	db.Close()
	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	if ents, _ := db.Last(10); len(ents) != 1 {
		t.Fatalf("history lost: %v", len(ents))
	}
}
