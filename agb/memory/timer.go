package memory

import (
	"github.com/valerio/go-agb/agb/addr"
)

// timerPrescale maps the TM*CNT_H clock select to the cycle count of
// one timer tick.
var timerPrescale = [4]int{1, 64, 256, 1024}

// Timer is one of the four 16-bit timers. A timer either counts its
// prescaled clock or, in count-up mode, the overflow of the timer below
// it.
type Timer struct {
	Count   uint16
	Reload  uint16
	Clock   int
	Ticks   int
	Enable  bool
	CountUp bool
	IRQ     bool

	// overflow records whether the timer overflowed in the current step.
	// tickTimers visits the timers in ascending order, so the next
	// timer's count-up check observes it within the same step.
	overflow bool
}

// writeControl decodes TM*CNT_H. On an enable edge the counter reloads.
func (t *Timer) writeControl(value byte) {
	t.Clock = int(value & 3)
	t.CountUp = value&(1<<2) != 0
	t.IRQ = value&(1<<6) != 0

	enable := value&(1<<7) != 0
	if enable && !t.Enable {
		t.Count = t.Reload
		t.Ticks = 0
	}
	t.Enable = enable
}

func (t *Timer) controlBits() byte {
	v := byte(t.Clock)
	if t.CountUp {
		v |= 1 << 2
	}
	if t.IRQ {
		v |= 1 << 6
	}
	if t.Enable {
		v |= 1 << 7
	}
	return v
}

// RunTimers advances all four timers by the given number of CPU clocks.
func (b *Bus) RunTimers(cycles int) {
	for c := 0; c < cycles; c++ {
		b.tickTimers()
	}
}

// tickTimers advances every timer by one clock. Each timer's overflow
// is latched before the next timer runs, so a count-up chain observes
// the overflow of the same step.
func (b *Bus) tickTimers() {
	previousOverflow := false

	for i := range b.Timers {
		t := &b.Timers[i]
		t.overflow = false
		if !t.Enable {
			previousOverflow = false
			continue
		}

		advance := false
		if t.CountUp {
			advance = previousOverflow
		} else {
			t.Ticks++
			if t.Ticks >= timerPrescale[t.Clock] {
				t.Ticks = 0
				advance = true
			}
		}

		if advance {
			if t.Count == 0xFFFF {
				t.Count = t.Reload
				t.overflow = true
				if t.IRQ {
					b.IRQ.Request(addr.Timer0Interrupt << uint(i))
				}
			} else {
				t.Count++
			}
		}
		previousOverflow = t.overflow
	}
}
