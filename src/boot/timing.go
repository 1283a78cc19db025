package boot

// Timing_t holds the delays of the wake-up handshake in microseconds. the
// values are empirical; nothing signals completion except the target's own
// report.
type Timing_t struct {
	// how long INIT stays asserted
	Init_hold uint
	// wait after each STARTUP before the error status is read
	Sipi_settle uint
	// send-pending poll interval and budget
	Pend_poll  uint
	Pend_tries int
	// self-report poll interval and budget
	Boot_poll  uint
	Boot_tries int
	// divides the long delays and the boot budget; 1 on real hardware
	Delay_factor uint
}

var Default_timing = Timing_t{
	Init_hold:    100000,
	Sipi_settle:  100000,
	Pend_poll:    10,
	Pend_tries:   1000,
	Boot_poll:    1000,
	Boot_tries:   100000,
	Delay_factor: 1,
}

func (t *Timing_t) factor() uint {
	if t.Delay_factor == 0 {
		return 1
	}
	return t.Delay_factor
}

func (t *Timing_t) init_hold() uint {
	return t.Init_hold / t.factor()
}

func (t *Timing_t) sipi_settle() uint {
	return t.Sipi_settle / t.factor()
}

func (t *Timing_t) boot_poll() uint {
	return t.Boot_poll / t.factor()
}

func (t *Timing_t) boot_tries() int {
	n := t.Boot_tries / int(t.factor())
	if n < 1 {
		n = 1
	}
	return n
}

// Boot_budget returns the longest a boot waits for the target to report.
func (t *Timing_t) Boot_budget() uint64 {
	return uint64(t.boot_poll()) * uint64(t.boot_tries())
}
