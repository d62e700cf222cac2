package irq

import (
	"testing"

	"github.com/valerio/go-agb/agb/addr"
)

func TestRequestAndPending(t *testing.T) {
	ic := New()

	ic.Request(addr.VBlankInterrupt)
	if ic.IF != 1 {
		t.Errorf("IF = 0x%04X, want 0x0001", ic.IF)
	}
	if ic.Pending() {
		t.Error("Pending with IE clear, want false")
	}

	ic.IE = 1
	if !ic.Pending() {
		t.Error("Pending = false, want true")
	}
}

func TestAcknowledgeClearsOnlyWrittenBits(t *testing.T) {
	ic := New()
	ic.Request(addr.VBlankInterrupt)
	ic.Request(addr.Timer0Interrupt)
	ic.Request(addr.DMA0Interrupt)

	ic.Acknowledge(uint16(addr.Timer0Interrupt))

	if ic.IF != uint16(addr.VBlankInterrupt|addr.DMA0Interrupt) {
		t.Errorf("IF = 0x%04X, want other bits untouched", ic.IF)
	}
}

func TestMasterEnable(t *testing.T) {
	ic := New()
	if ic.MasterEnabled() {
		t.Error("master enable set after init")
	}
	ic.IME = 1
	if !ic.MasterEnabled() {
		t.Error("MasterEnabled = false after IME=1")
	}
}
