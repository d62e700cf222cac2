package agb

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-agb/agb/cpu"
	"github.com/valerio/go-agb/agb/memory"
)

// newTestEmulator builds a core around a ROM image assembled from the
// given ARM words, HLE BIOS.
func newTestEmulator(t *testing.T, words ...uint32) *Emulator {
	t.Helper()

	rom := make([]byte, 0x4000)
	for i, w := range words {
		binary.LittleEndian.PutUint32(rom[i*4:], w)
	}

	cart, err := memory.NewCartridgeWithData(rom)
	require.NoError(t, err)
	emu, err := New(cart, nil)
	require.NoError(t, err)
	return emu
}

func TestBootSkipState(t *testing.T) {
	emu := newTestEmulator(t)
	emu.Reset()

	c := emu.CPU()
	assert.Equal(t, uint32(0x08000000), c.PC())
	assert.Equal(t, uint32(0x03007F00), c.Reg(13))
	assert.Equal(t, uint32(0x03007FE0), c.RegForMode(cpu.ModeSVC, 13))
	assert.Equal(t, uint32(0x03007FA0), c.RegForMode(cpu.ModeIRQ, 13))
	assert.Equal(t, cpu.ModeUser, c.Mode())
}

func TestBIOSTooLarge(t *testing.T) {
	cart, err := memory.NewCartridgeWithData(make([]byte, 0x100))
	require.NoError(t, err)

	_, err = New(cart, make([]byte, 0x5000))
	assert.Error(t, err)
}

func TestRunForExecutesProgram(t *testing.T) {
	// MOV r0, #7; SUB r0, r0, #2; loop: B loop
	emu := newTestEmulator(t,
		0xE3A00007,
		0xE2400002,
		0xEAFFFFFE,
	)

	emu.RunFor(100)
	assert.Equal(t, uint32(5), emu.CPU().Reg(0))
}

func TestDMAImmediateThroughScheduler(t *testing.T) {
	// Guest program: idle loop. The test programs DMA0 directly through
	// the bus, then lets the scheduler arbitrate.
	emu := newTestEmulator(t, 0xEAFFFFFE)
	bus := emu.Bus()

	for i := uint32(0); i < 16; i += 4 {
		bus.Write32(0x02000000+i, 0xDEADBEEF+i)
	}

	bus.Write32(0x040000B0, 0x02000000)
	bus.Write32(0x040000B4, 0x02000100)
	bus.Write16(0x040000B8, 4)
	bus.Write16(0x040000BA, 0x8000|1<<14|1<<10) // enable, IRQ, 32-bit, immediate

	emu.RunFor(1)

	for i := uint32(0); i < 16; i += 4 {
		assert.Equal(t, uint32(0xDEADBEEF+i), bus.Read32(0x02000100+i))
	}
	assert.False(t, bus.DMA[0].Enable)
	assert.NotZero(t, emu.IRQ().IF&0x100)
}

func TestVBlankIRQDelivery(t *testing.T) {
	emu := newTestEmulator(t, 0xEAFFFFFE) // idle loop
	bus := emu.Bus()

	// IME stays off while the frame runs so the exact moment of
	// delivery is observable below.
	bus.Write16(0x04000004, 0x0008) // DISPSTAT: VBlank IRQ enable
	bus.Write16(0x04000200, 0x0001) // IE: VBlank

	// The flag rises on entry into VBlank, after 160 visible scanlines.
	for i := 0; i < 161 && emu.IRQ().IF&1 == 0; i++ {
		emu.RunFor(1232)
	}

	assert.NotZero(t, emu.IRQ().IF&1, "VBlank flag raised")
	assert.Equal(t, cpu.ModeUser, emu.CPU().Mode(), "not delivered while IME is off")

	// The next arbitration redirects the CPU to the IRQ vector.
	bus.Write16(0x04000208, 0x0001)
	emu.RunFor(1)

	c := emu.CPU()
	assert.Equal(t, cpu.ModeIRQ, c.Mode())
	assert.NotZero(t, c.CPSR()&cpu.FlagI)
	assert.Equal(t, uint32(0x1C), c.PC(), "one fetch past the 0x18 vector")
}

func TestHaltWakesOnInterrupt(t *testing.T) {
	emu := newTestEmulator(t, 0xEAFFFFFE)
	bus := emu.Bus()

	// Timer 0 overflows after 16 ticks and is the only enabled IRQ
	// source. HALTCNT stops the CPU until it fires.
	bus.Write16(0x04000100, 0xFFF0)
	bus.Write16(0x04000102, 0x00C0)
	bus.Write16(0x04000200, 0x0008) // IE: timer 0
	bus.Write8(0x04000301, 0x00)    // halt

	emu.RunFor(8)
	assert.NotEqual(t, uint32(0), uint32(emu.IRQ().Halt), "still halted")

	emu.RunFor(100)
	assert.Zero(t, uint32(emu.IRQ().Halt), "woken by the timer interrupt")
	assert.NotZero(t, emu.IRQ().IF&0x08)
}

func TestRunUntilFrame(t *testing.T) {
	emu := newTestEmulator(t, 0xEAFFFFFE)

	emu.RunUntilFrame()
	assert.Equal(t, uint64(1), emu.FrameCount())

	emu.RunUntilFrame()
	assert.Equal(t, uint64(2), emu.FrameCount())
}

func TestKeyInputThroughCore(t *testing.T) {
	emu := newTestEmulator(t)

	emu.PressKey(memory.KeyStart)
	assert.Equal(t, uint16(0x3FF&^0x08), emu.Bus().Read16(0x04000130))

	emu.ReleaseKey(memory.KeyStart)
	assert.Equal(t, uint16(0x3FF), emu.Bus().Read16(0x04000130))
}
