package cpu

import (
	"fmt"
	"log/slog"
)

// High-level BIOS call emulation. When the core runs without a real
// BIOS image, SWI instructions dispatch here instead of trapping to the
// vector table.

// BIOS call numbers handled natively.
const (
	swiRegisterRAMReset = 0x01
	swiHalt             = 0x02
	swiDiv              = 0x06
	swiCpuSet           = 0x0B
	swiCpuFastSet       = 0x0C
	swiLZ77WRAM         = 0x11
	swiLZ77VRAM         = 0x12
)

func (c *CPU) swi(number int) {
	switch number {
	case swiRegisterRAMReset, swiHalt:
		// Treated as no-ops; the scheduler's halt handling covers the
		// guest-visible effect of Halt well enough for games that call
		// it through the BIOS.
	case swiDiv:
		c.swiDiv()
	case swiCpuSet:
		c.swiCpuSet()
	case swiCpuFastSet:
		c.swiCpuFastSet()
	case swiLZ77WRAM, swiLZ77VRAM:
		c.swiLZ77()
	default:
		slog.Error("Unimplemented BIOS call", "number", fmt.Sprintf("0x%02X", number))
	}
}

// swiDiv implements the division call: r0/r1 into r0, r0%r1 into r1.
func (c *CPU) swiDiv() {
	numerator := c.Reg(0)
	denominator := c.Reg(1)
	if denominator == 0 {
		slog.Error("BIOS Div by zero")
		return
	}
	c.SetReg(0, numerator/denominator)
	c.SetReg(1, numerator%denominator)
}

// swiCpuSet copies or fills length units from r0 to r1. Bit 26 of r2
// selects 32-bit units, bit 24 fixed-source fill.
func (c *CPU) swiCpuSet() {
	source := c.Reg(0)
	dest := c.Reg(1)
	control := c.Reg(2)
	length := control & 0xFFFFF
	fixed := control&(1<<24) != 0

	if control&(1<<26) != 0 {
		for i := uint32(0); i < length; i++ {
			c.bus.Write32(dest, c.bus.Read32(source))
			dest += 4
			if !fixed {
				source += 4
			}
		}
	} else {
		for i := uint32(0); i < length; i++ {
			c.bus.Write16(dest, c.bus.Read16(source))
			dest += 2
			if !fixed {
				source += 2
			}
		}
	}
}

// swiCpuFastSet is the 32-bit only variant.
func (c *CPU) swiCpuFastSet() {
	source := c.Reg(0)
	dest := c.Reg(1)
	control := c.Reg(2)
	length := control & 0xFFFFF
	fixed := control&(1<<24) != 0

	for i := uint32(0); i < length; i++ {
		c.bus.Write32(dest, c.bus.Read32(source))
		dest += 4
		if !fixed {
			source += 4
		}
	}
}

// swiLZ77 decompresses the LZ77 stream at r0 to r1. The header word
// carries the decoded length in its upper 24 bits; each encoder byte
// flags eight tokens, MSB first, as back-references or literals.
func (c *CPU) swiLZ77() {
	header := c.bus.Read32(c.Reg(0))
	remaining := int(header >> 8)
	source := c.Reg(0) + 4
	dest := c.Reg(1)

	for remaining > 0 {
		encoder := c.bus.Read8(source)
		source++

		for i := 7; i >= 0; i-- {
			if encoder&(1<<i) != 0 {
				// The token bytes read individually: the stream is not
				// halfword aligned.
				b1 := uint32(c.bus.Read8(source))
				b2 := uint32(c.bus.Read8(source + 1))
				source += 2
				disp := (b1&0xF)<<8 | b2
				length := int(b1>>4)&0xF + 3

				for j := 0; j < length; j++ {
					c.bus.Write8(dest, c.bus.Read8(dest-disp-1))
					dest++
					remaining--
					if remaining == 0 {
						return
					}
				}
			} else {
				c.bus.Write8(dest, c.bus.Read8(source))
				source++
				dest++
				remaining--
				if remaining == 0 {
					return
				}
			}
		}
	}
}
