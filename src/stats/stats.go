// Package stats counts bring-up events for the topology report.
package stats

import "reflect"
import "strconv"
import "strings"
import "sync/atomic"

type Counter_t int64

func (c *Counter_t) Inc() {
	atomic.AddInt64((*int64)(c), 1)
}

func (c *Counter_t) Get() int64 {
	return atomic.LoadInt64((*int64)(c))
}

// Boot_t counts what the boot sequencer did.
type Boot_t struct {
	Inits       Counter_t
	Startups    Counter_t
	Sendpending Counter_t
	Esrerrs     Counter_t
	Timeouts    Counter_t
	Booted      Counter_t
}

// Stats2map returns the Counter_t fields of st by name.
func Stats2map(st interface{}) map[string]int64 {
	ret := make(map[string]int64)
	v := reflect.Indirect(reflect.ValueOf(st))
	for i := 0; i < v.NumField(); i++ {
		t := v.Field(i).Type().String()
		if strings.HasSuffix(t, "Counter_t") {
			f := v.Field(i).Addr().Interface().(*Counter_t)
			ret[v.Type().Field(i).Name] = f.Get()
		}
	}
	return ret
}

func Stats2String(st interface{}) string {
	s := ""
	v := reflect.Indirect(reflect.ValueOf(st))
	m := Stats2map(st)
	for i := 0; i < v.NumField(); i++ {
		name := v.Type().Field(i).Name
		if n, ok := m[name]; ok {
			s += "\n\t#" + name + ": " + strconv.FormatInt(n, 10)
		}
	}
	return s + "\n"
}
