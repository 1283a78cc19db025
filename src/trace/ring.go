package trace

import "fmt"
import "sync"

type Kind_t int

const (
	STATUS Kind_t = iota
	STATUSN
	TRACE
)

type Ent_t struct {
	Kind Kind_t
	Msg  string
	A    uint64
	B    uint64
}

func (e Ent_t) String() string {
	switch e.Kind {
	case STATUSN:
		return fmt.Sprintf("%s%x", e.Msg, e.A)
	case TRACE:
		return fmt.Sprintf("trace %-10s %#x %#x", e.Msg, e.A, e.B)
	}
	return e.Msg
}

// Ring_t remembers the most recent events, overwriting the oldest once
// full. head and tail only grow; the slot is their value modulo the size.
type Ring_t struct {
	sync.Mutex
	buf  []Ent_t
	head int
	tail int
}

func Mkring(sz int) *Ring_t {
	if sz <= 0 {
		panic("bad ring size")
	}
	return &Ring_t{buf: make([]Ent_t, sz)}
}

func (r *Ring_t) put(e Ent_t) {
	r.Lock()
	if r.head-r.tail == len(r.buf) {
		r.tail++
	}
	r.buf[r.head%len(r.buf)] = e
	r.head++
	r.Unlock()
}

func (r *Ring_t) Status(msg string) {
	r.put(Ent_t{Kind: STATUS, Msg: msg})
}

func (r *Ring_t) Statusn(msg string, v uint64) {
	r.put(Ent_t{Kind: STATUSN, Msg: msg, A: v})
}

func (r *Ring_t) Trace(tag string, a, b uint64) {
	r.put(Ent_t{Kind: TRACE, Msg: tag, A: a, B: b})
}

// Ents returns the remembered events oldest first.
func (r *Ring_t) Ents() []Ent_t {
	r.Lock()
	defer r.Unlock()
	ret := make([]Ent_t, 0, r.head-r.tail)
	for i := r.tail; i < r.head; i++ {
		ret = append(ret, r.buf[i%len(r.buf)])
	}
	return ret
}

// Statuses returns only the status text, oldest first.
func (r *Ring_t) Statuses() []string {
	var ret []string
	for _, e := range r.Ents() {
		if e.Kind != TRACE {
			ret = append(ret, e.String())
		}
	}
	return ret
}
