package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-agb/agb/irq"
)

func TestInterruptFlagWriteOneToClear(t *testing.T) {
	bus := newTestBus(t, nil)
	bus.IRQ.IF = 0x1F05

	bus.Write16(0x04000202, 0x0004)

	assert.Equal(t, uint16(0x1F01), bus.IRQ.IF)
	assert.Equal(t, uint16(0x1F01), bus.Read16(0x04000202))
}

func TestIOMirrorAt0800(t *testing.T) {
	bus := newTestBus(t, nil)

	// Every 0x040n0800 alias behaves exactly like 0x04000800.
	reference := bus.Read16(0x04000800)
	for _, mirror := range []uint32{0x04010800, 0x04120800, 0x04FF0800} {
		assert.Equal(t, reference, bus.Read16(mirror))
		bus.Write16(mirror, 0x1234)
		assert.Equal(t, bus.Read16(0x04000800), bus.Read16(mirror))
	}
}

func TestDisplayControlRoundTrip(t *testing.T) {
	bus := newTestBus(t, nil)

	bus.Write16(0x04000000, 0x3743) // mode 3, 1D mapping, BG0-2, OBJ, win0

	p := bus.PPU
	assert.Equal(t, 3, p.VideoMode)
	assert.False(t, p.FrameSelect)
	assert.True(t, p.Obj.OneDimensional)
	assert.True(t, p.BG[0].Enable)
	assert.True(t, p.BG[1].Enable)
	assert.True(t, p.BG[2].Enable)
	assert.False(t, p.BG[3].Enable)
	assert.True(t, p.Obj.Enable)
	assert.True(t, p.Win[0].Enable)
	assert.Equal(t, uint16(0x3743), bus.Read16(0x04000000))
}

func TestBackgroundControl(t *testing.T) {
	bus := newTestBus(t, nil)

	bus.Write16(0x0400000C, 0xE281) // BG2: prio 1, tile base 0, 8bpp, map base 2, wrap, size 3

	bg := &bus.PPU.BG[2]
	assert.Equal(t, 1, bg.Priority)
	assert.True(t, bg.EightBPP)
	assert.Equal(t, uint32(2*0x800), bg.MapBase)
	assert.True(t, bg.Wraparound)
	assert.Equal(t, 3, bg.Size)

	// Bits 4-5 read back set.
	assert.Equal(t, uint16(0xE281|0x30), bus.Read16(0x0400000C))
}

func TestScrollRegisters(t *testing.T) {
	bus := newTestBus(t, nil)

	bus.Write16(0x04000010, 0x1FF) // BG0HOFS, 9 bits
	bus.Write16(0x04000012, 0x0AB) // BG0VOFS
	bus.Write16(0x04000014, 0x100) // BG1HOFS

	assert.Equal(t, uint32(0x1FF), bus.PPU.BG[0].X)
	assert.Equal(t, uint32(0x0AB), bus.PPU.BG[0].Y)
	assert.Equal(t, uint32(0x100), bus.PPU.BG[1].X)
}

func TestAffineRegisters(t *testing.T) {
	bus := newTestBus(t, nil)

	bus.Write16(0x04000020, 0x0100) // BG2PA = 1.0
	bus.Write16(0x04000026, 0xFF00) // BG2PD = -1.0
	bus.Write32(0x04000028, 0x00000180)

	bg := &bus.PPU.BG[2]
	assert.Equal(t, uint16(0x0100), bg.PA)
	assert.Equal(t, uint16(0xFF00), bg.PD)
	assert.Equal(t, uint32(0x180), bg.XRef)
	assert.InDelta(t, 1.5, bg.XRefInt, 1e-9)
}

func TestTimerRegisters(t *testing.T) {
	bus := newTestBus(t, nil)

	// Writing CNT_L sets the reload, not the count; reads observe the
	// count.
	bus.Write16(0x04000100, 0xBEEF)
	assert.Equal(t, uint16(0xBEEF), bus.Timers[0].Reload)
	assert.Equal(t, uint16(0), bus.Read16(0x04000100))

	// Enable loads the counter from the reload.
	bus.Write16(0x04000102, 0x00C3) // prescaler 1024, IRQ, enable
	assert.Equal(t, uint16(0xBEEF), bus.Read16(0x04000100))
	assert.Equal(t, 3, bus.Timers[0].Clock)
	assert.True(t, bus.Timers[0].IRQ)
	assert.True(t, bus.Timers[0].Enable)
}

func TestDMAEnableLatchesInternalRegisters(t *testing.T) {
	bus := newTestBus(t, nil)

	bus.Write32(0x040000B0, 0x03001234) // DMA0SAD
	bus.Write32(0x040000B4, 0x03005678) // DMA0DAD
	bus.Write16(0x040000B8, 0)          // count 0 -> full range
	bus.Write16(0x040000BA, 0x8000|2<<12)

	ch := &bus.DMA[0]
	assert.Equal(t, uint32(0x03001234), ch.SourceInt)
	assert.Equal(t, uint32(0x03005678), ch.DestInt)
	assert.Equal(t, uint32(0x4000), ch.CountInt, "zero count latches as max+1")
	assert.Equal(t, StartHBlank, ch.Start)
	assert.True(t, ch.Enable)
}

func TestDMASourceMasking(t *testing.T) {
	bus := newTestBus(t, nil)

	// Channel 0 source is confined to 27 bits.
	bus.Write32(0x040000B0, 0x89ABCDEF)
	bus.Write16(0x040000B8, 1)
	bus.Write16(0x040000BA, 0x8000)

	assert.Equal(t, uint32(0x89ABCDEF)&0x7FFFFFF, bus.DMA[0].SourceInt)
}

func TestHaltControl(t *testing.T) {
	bus := newTestBus(t, nil)

	bus.Write8(0x04000301, 0x00)
	assert.Equal(t, irq.Halt, bus.IRQ.Halt)

	bus.Write8(0x04000301, 0x80)
	assert.Equal(t, irq.Stop, bus.IRQ.Halt)
}

func TestKeyInput(t *testing.T) {
	bus := newTestBus(t, nil)

	assert.Equal(t, uint16(0x3FF), bus.Read16(0x04000130), "all keys released at boot")

	bus.PressKey(KeyA)
	bus.PressKey(KeyDown)
	assert.Equal(t, uint16(0x3FF&^0x81), bus.Read16(0x04000130))

	bus.ReleaseKey(KeyA)
	assert.Equal(t, uint16(0x3FF&^0x80), bus.Read16(0x04000130))

	// Writes to the read-only register are dropped.
	bus.Write16(0x04000130, 0)
	assert.Equal(t, uint16(0x3FF&^0x80), bus.Read16(0x04000130))
}
