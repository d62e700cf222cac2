package irq

import "github.com/valerio/go-agb/agb/addr"

// HaltState tracks whether the CPU is running, halted until the next
// interrupt, or stopped.
type HaltState int

const (
	Run HaltState = iota
	Halt
	Stop
)

// IRQ is the interrupt controller register file. Every component that can
// raise an interrupt holds a reference to it; the scheduler polls
// Pending between steps.
type IRQ struct {
	IE   uint16
	IF   uint16
	IME  uint16
	Halt HaltState
}

func New() *IRQ {
	return &IRQ{}
}

// Request raises the interrupt's bit in IF. Whether the CPU observes it
// depends on IE, IME and CPSR.I at the next scheduler arbitration.
func (i *IRQ) Request(interrupt addr.Interrupt) {
	i.IF |= uint16(interrupt)
}

// Acknowledge clears the given bits from IF. IF is write-1-to-clear from
// the guest's point of view; this is the backing operation.
func (i *IRQ) Acknowledge(bits uint16) {
	i.IF &= ^bits
}

// Pending reports whether any enabled interrupt is requested, ignoring
// the master enable. A pending interrupt wakes a halted CPU even when
// IME is clear.
func (i *IRQ) Pending() bool {
	return i.IE&i.IF != 0
}

// MasterEnabled reports whether the master interrupt enable is set.
func (i *IRQ) MasterEnabled() bool {
	return i.IME&1 != 0
}
