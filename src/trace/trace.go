// Package trace is the status and trace reporting sink. reporting is best
// effort: sinks never fail and never change the caller's control flow.
package trace

import "fmt"
import "io"
import "sync"

type Sink_i interface {
	// a line of status text
	Status(msg string)
	// status text followed by a number in hex
	Statusn(msg string, v uint64)
	// a debug breadcrumb with two values
	Trace(tag string, a, b uint64)
}

type nop_t struct{}

func (nop_t) Status(string)                {}
func (nop_t) Statusn(string, uint64)       {}
func (nop_t) Trace(string, uint64, uint64) {}

var Nop Sink_i = nop_t{}

// Console_t prints to w. trace breadcrumbs are only printed when Debug is
// set.
type Console_t struct {
	sync.Mutex
	w     io.Writer
	Debug bool
}

func Mkconsole(w io.Writer, debug bool) *Console_t {
	return &Console_t{w: w, Debug: debug}
}

func (c *Console_t) Status(msg string) {
	c.Lock()
	fmt.Fprintf(c.w, "%s\n", msg)
	c.Unlock()
}

func (c *Console_t) Statusn(msg string, v uint64) {
	c.Lock()
	fmt.Fprintf(c.w, "%s%x\n", msg, v)
	c.Unlock()
}

func (c *Console_t) Trace(tag string, a, b uint64) {
	if !c.Debug {
		return
	}
	c.Lock()
	fmt.Fprintf(c.w, "trace %-10s %#x %#x\n", tag, a, b)
	c.Unlock()
}

type tee_t []Sink_i

func (t tee_t) Status(msg string) {
	for _, s := range t {
		s.Status(msg)
	}
}

func (t tee_t) Statusn(msg string, v uint64) {
	for _, s := range t {
		s.Statusn(msg, v)
	}
}

func (t tee_t) Trace(tag string, a, b uint64) {
	for _, s := range t {
		s.Trace(tag, a, b)
	}
}

// Tee sends every event to all of sinks.
func Tee(sinks ...Sink_i) Sink_i {
	return tee_t(sinks)
}
