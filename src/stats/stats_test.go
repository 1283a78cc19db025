package stats

import "strings"
import "testing"

func TestStats(t *testing.T) {
	var b Boot_t
	b.Inits.Inc()
	b.Startups.Inc()
	b.Startups.Inc()
	m := Stats2map(&b)
	if m["Inits"] != 1 || m["Startups"] != 2 || m["Timeouts"] != 0 {
		t.Fatalf("map %v", m)
	}
	if len(m) != 6 {
		t.Fatalf("fields %v", len(m))
	}
	s := Stats2String(&b)
	if !strings.Contains(s, "#Startups: 2") {
		t.Fatalf("string %q", s)
	}
}
