package memory

import (
	"github.com/valerio/go-agb/agb/addr"
)

// AddressControl selects how a DMA channel steps an address after each
// transferred unit.
type AddressControl int

const (
	AddrIncrement AddressControl = iota
	AddrDecrement
	AddrFixed
	AddrReload
)

// StartTiming selects the event that triggers an enabled channel.
type StartTiming int

const (
	StartImmediate StartTiming = iota
	StartVBlank
	StartHBlank
	StartSpecial
)

// Per-channel masks. Channel 3 addresses the full gamepak space and
// counts up to 0x10000 units; the lower channels are narrower.
var (
	dmaCountMask  = [4]uint32{0x3FFF, 0x3FFF, 0x3FFF, 0xFFFF}
	dmaDestMask   = [4]uint32{0x7FFFFFF, 0x7FFFFFF, 0x7FFFFFF, 0xFFFFFFF}
	dmaSourceMask = [4]uint32{0x7FFFFFF, 0xFFFFFFF, 0xFFFFFFF, 0xFFFFFFF}
)

// DMAChannel is one of the four transfer channels. The programmed
// source/dest/count stay untouched during a transfer; the internal
// copies latched on the enable edge do the work.
type DMAChannel struct {
	Source uint32
	Dest   uint32
	Count  uint16

	SourceInt uint32
	DestInt   uint32
	CountInt  uint32

	SourceControl AddressControl
	DestControl   AddressControl
	Start         StartTiming
	Word          bool
	Repeat        bool
	GamepakDRQ    bool
	Interrupt     bool
	Enable        bool
}

// writeControlLow decodes the low byte of CNT_H: destination control in
// bits 5-6 and the low bit of the source control in bit 7.
func (ch *DMAChannel) writeControlLow(value byte) {
	ch.DestControl = AddressControl((value >> 5) & 3)
	ch.SourceControl = (ch.SourceControl & 2) | AddressControl((value>>7)&1)
}

// writeControlHigh decodes the high byte of CNT_H. A 0-to-1 transition
// of the enable bit latches the internal copies; a zero count latches
// as the channel's full range.
func (ch *DMAChannel) writeControlHigh(n int, value byte) {
	ch.SourceControl = (ch.SourceControl & 1) | AddressControl((value&1)<<1)
	ch.Repeat = value&(1<<1) != 0
	ch.Word = value&(1<<2) != 0
	ch.GamepakDRQ = value&(1<<3) != 0
	ch.Start = StartTiming((value >> 4) & 3)
	ch.Interrupt = value&(1<<6) != 0

	enable := value&(1<<7) != 0
	if enable && !ch.Enable {
		ch.SourceInt = ch.Source & dmaSourceMask[n]
		ch.DestInt = ch.Dest & dmaDestMask[n]
		ch.CountInt = uint32(ch.Count) & dmaCountMask[n]
		if ch.CountInt == 0 {
			ch.CountInt = dmaCountMask[n] + 1
		}
	}
	ch.Enable = enable
}

func (ch *DMAChannel) controlLow() byte {
	return byte(ch.DestControl)<<5 | byte(ch.SourceControl&1)<<7
}

func (ch *DMAChannel) controlHigh() byte {
	v := byte(ch.SourceControl>>1) & 1
	if ch.Repeat {
		v |= 1 << 1
	}
	if ch.Word {
		v |= 1 << 2
	}
	if ch.GamepakDRQ {
		v |= 1 << 3
	}
	v |= byte(ch.Start) << 4
	if ch.Interrupt {
		v |= 1 << 6
	}
	if ch.Enable {
		v |= 1 << 7
	}
	return v
}

// triggered reports whether an enabled channel's start condition holds
// during this arbitration step.
func (ch *DMAChannel) triggered(vblank, hblank bool) bool {
	switch ch.Start {
	case StartImmediate:
		return true
	case StartVBlank:
		return vblank
	case StartHBlank:
		return hblank
	default:
		// Special (channel 3 video capture) never starts.
		return false
	}
}

// DMAReady reports whether any channel would transfer at this
// arbitration step.
func (b *Bus) DMAReady() bool {
	for i := range b.DMA {
		if b.DMA[i].Enable && b.DMA[i].triggered(b.PPU.VBlankDMA, b.PPU.HBlankDMA) {
			return true
		}
	}
	return false
}

// RunDMA services every triggered channel to completion, lowest channel
// first, and returns the consumed cycles. The one-shot blanking
// triggers are consumed after all channels had a chance to observe them.
func (b *Bus) RunDMA() int {
	cycles := 0
	vblank, hblank := b.PPU.VBlankDMA, b.PPU.HBlankDMA

	for i := range b.DMA {
		ch := &b.DMA[i]
		if !ch.Enable || !ch.triggered(vblank, hblank) {
			continue
		}
		cycles += b.runChannel(i)
	}

	if vblank {
		b.PPU.VBlankDMA = false
	}
	if hblank {
		b.PPU.HBlankDMA = false
	}
	return cycles
}

func (b *Bus) runChannel(n int) int {
	ch := &b.DMA[n]
	cycles := 2
	step := uint32(2)
	if ch.Word {
		step = 4
	}

	for ch.CountInt != 0 {
		if ch.Word {
			b.Write32(ch.DestInt&^uint32(3), b.Read32(ch.SourceInt&^uint32(3)))
		} else {
			b.Write16(ch.DestInt&^uint32(1), b.Read16(ch.SourceInt&^uint32(1)))
		}
		cycles += b.AccessCycles(ch.SourceInt, ch.Word, true) +
			b.AccessCycles(ch.DestInt, ch.Word, true)

		switch ch.DestControl {
		case AddrIncrement, AddrReload:
			ch.DestInt += step
		case AddrDecrement:
			ch.DestInt -= step
		}
		switch ch.SourceControl {
		case AddrIncrement, AddrReload:
			// The source never reloads; control 3 behaves as increment.
			ch.SourceInt += step
		case AddrDecrement:
			ch.SourceInt -= step
		}
		ch.CountInt--
	}

	if ch.Repeat {
		ch.CountInt = uint32(ch.Count) & dmaCountMask[n]
		if ch.CountInt == 0 {
			ch.CountInt = dmaCountMask[n] + 1
		}
		if ch.DestControl == AddrReload {
			ch.DestInt = ch.Dest & dmaDestMask[n]
		}
	} else {
		ch.Enable = false
	}

	if ch.Interrupt {
		b.IRQ.Request(addr.DMA0Interrupt << uint(n))
	}
	return cycles
}
