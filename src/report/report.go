// Package report renders what bring-up found and did as a JSON document.
package report

import "encoding/hex"
import "fmt"

import "github.com/sugawarayuuta/sonnet"
import "golang.org/x/crypto/sha3"

import "github.com/ystk/debian-memtest86/src/smp"
import "github.com/ystk/debian-memtest86/src/stats"
import "github.com/ystk/debian-memtest86/src/topo"

type Cpu_t struct {
	Ord    int    `json:"ord"`
	Apicid uint32 `json:"apicid"`
	Status string `json:"status"`
}

// Table_t is one firmware table the scan accepted.
type Table_t struct {
	Sig  string `json:"sig"`
	Addr uint64 `json:"addr"`
	Len  int    `json:"len"`
	Sum  string `json:"sha3"`
}

type Report_t struct {
	Source       string           `json:"source"`
	Lapic        uint64           `json:"lapic"`
	Found        int              `json:"found"`
	Active       int              `json:"active"`
	Logical_bits uint32           `json:"logical_bits"`
	Cpus         []Cpu_t          `json:"cpus"`
	Ioapics      int              `json:"ioapics"`
	Tables       []Table_t        `json:"tables,omitempty"`
	Stats        map[string]int64 `json:"stats,omitempty"`
	// identifies the topology independent of bring-up outcome
	Fingerprint string `json:"fingerprint"`
}

// Fingerprint returns the SHA3-256 of tbl in hex.
func Fingerprint(tbl []uint8) string {
	s := sha3.Sum256(tbl)
	return hex.EncodeToString(s[:])
}

func (r *Report_t) add_table(sig string, addr uint64, raw []uint8) {
	r.Tables = append(r.Tables, Table_t{Sig: sig, Addr: addr,
		Len: len(raw), Sum: Fingerprint(raw)})
}

// Scanned describes a discovery result alone.
func Scanned(t *topo.Result_t) *Report_t {
	r := &Report_t{
		Source:       t.Source.String(),
		Lapic:        t.Lapic,
		Found:        t.Found,
		Logical_bits: t.Logical_bits,
	}
	for i := 0; i < t.Reg.Len(); i++ {
		r.Cpus = append(r.Cpus, Cpu_t{Ord: i, Apicid: t.Reg.Id(i),
			Status: t.Reg.Status(i).String()})
	}
	if t.Fps != nil && t.Fps.Default() {
		r.Tables = append(r.Tables, Table_t{Sig: "_MP_",
			Addr: uint64(t.Fps.Addr), Len: 16})
	}
	if t.Mpc != nil {
		r.Ioapics = t.Mpc.Nioapic
		r.add_table("PCMP", uint64(t.Mpc.Addr), t.Mpc.Raw)
	}
	if t.Madt != nil {
		r.Ioapics = len(t.Madt.Ioapics)
		r.add_table("APIC", uint64(t.Madt.Addr), t.Madt.Raw)
	}
	h := sha3.New256()
	fmt.Fprintf(h, "%s %d", r.Source, r.Found)
	for _, c := range r.Cpus {
		fmt.Fprintf(h, " %d", c.Apicid)
	}
	for _, tb := range r.Tables {
		h.Write([]uint8(tb.Sum))
	}
	r.Fingerprint = hex.EncodeToString(h.Sum(nil))
	return r
}

// Build describes m after Initialise_cpus.
func Build(m *smp.Machine_t) *Report_t {
	r := Scanned(m.Topo)
	r.Found = m.Found()
	r.Active = m.Active()
	if m.Seq != nil {
		r.Stats = stats.Stats2map(&m.Seq.Stats)
	}
	return r
}

func Marshal(r *Report_t) ([]uint8, error) {
	return sonnet.Marshal(r)
}

func Unmarshal(d []uint8) (*Report_t, error) {
	r := &Report_t{}
	if err := sonnet.Unmarshal(d, r); err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	return r, nil
}
