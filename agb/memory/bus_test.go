package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-agb/agb/irq"
	"github.com/valerio/go-agb/agb/video"
)

func newTestBus(t *testing.T, rom []byte) *Bus {
	t.Helper()
	ic := irq.New()
	ppu := video.NewPPU(ic)

	cart := NewCartridge()
	if rom != nil {
		var err error
		cart, err = NewCartridgeWithData(rom)
		require.NoError(t, err)
	}

	bus, err := NewBus(cart, nil, ppu, ic)
	require.NoError(t, err)
	return bus
}

func TestReadWriteRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		addr uint32
	}{
		{"WRAM", 0x02000000},
		{"IRAM", 0x03000100},
		{"PAL", 0x05000010},
		{"VRAM", 0x06000020},
		{"OAM", 0x07000030},
	}

	bus := newTestBus(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus.Write32(tt.addr, 0xCAFEBABE)
			assert.Equal(t, uint32(0xCAFEBABE), bus.Read32(tt.addr))
			assert.Equal(t, uint32(bus.Read16(tt.addr))|uint32(bus.Read16(tt.addr+2))<<16, bus.Read32(tt.addr))
		})
	}
}

func TestMirroring(t *testing.T) {
	bus := newTestBus(t, nil)

	t.Run("WRAM wraps at 256K", func(t *testing.T) {
		bus.Write8(0x02000000, 0x42)
		assert.Equal(t, byte(0x42), bus.Read8(0x02040000))
	})

	t.Run("IRAM wraps at 32K", func(t *testing.T) {
		bus.Write8(0x03000000, 0x24)
		assert.Equal(t, byte(0x24), bus.Read8(0x03008000))
	})

	t.Run("VRAM upper 32K folds", func(t *testing.T) {
		bus.Write8(0x06010000, 0x55) // widened halfword
		for v := uint32(0x18000); v < 0x20000; v += 0x2000 {
			assert.Equal(t, bus.Read8(0x06000000+v-0x8000), bus.Read8(0x06000000+v))
		}
	})

	t.Run("VRAM wraps at 128K", func(t *testing.T) {
		bus.Write16(0x06000100, 0x1234)
		assert.Equal(t, uint16(0x1234), bus.Read16(0x06020100))
	})
}

func TestNarrowWrites(t *testing.T) {
	bus := newTestBus(t, nil)

	t.Run("8-bit VRAM write widens to both lanes", func(t *testing.T) {
		bus.Write8(0x06000001, 0xAB)
		assert.Equal(t, uint16(0xABAB), bus.Read16(0x06000000))
	})

	t.Run("8-bit PAL write widens to both lanes", func(t *testing.T) {
		bus.Write8(0x05000004, 0x7F)
		assert.Equal(t, uint16(0x7F7F), bus.Read16(0x05000004))
	})

	t.Run("8-bit OAM write is dropped", func(t *testing.T) {
		bus.Write16(0x07000000, 0x1234)
		bus.Write8(0x07000000, 0xFF)
		assert.Equal(t, uint16(0x1234), bus.Read16(0x07000000))
	})
}

func TestForcedAlignment(t *testing.T) {
	bus := newTestBus(t, nil)

	bus.Write32(0x02000000, 0x11223344)
	assert.Equal(t, uint32(0x11223344), bus.Read32(0x02000002))
	assert.Equal(t, uint16(0x3344), bus.Read16(0x02000001))
}

func TestROM(t *testing.T) {
	rom := make([]byte, 0x100)
	for i := range rom {
		rom[i] = byte(i)
	}
	bus := newTestBus(t, rom)

	t.Run("reads through all three images", func(t *testing.T) {
		assert.Equal(t, byte(0x10), bus.Read8(0x08000010))
		assert.Equal(t, byte(0x10), bus.Read8(0x0A000010))
		assert.Equal(t, byte(0x10), bus.Read8(0x0C000010))
	})

	t.Run("out of range reads return 0", func(t *testing.T) {
		assert.Equal(t, byte(0), bus.Read8(0x08000000+0x200))
	})

	t.Run("writes are dropped", func(t *testing.T) {
		bus.Write32(0x08000000, 0xFFFFFFFF)
		assert.Equal(t, byte(0x00), bus.Read8(0x08000000))
	})
}

func TestBIOSReadGate(t *testing.T) {
	bus := newTestBus(t, nil)

	bus.SetPC(0x00000008)
	assert.NotEqual(t, byte(0), bus.Read8(0x00000000), "stub BIOS starts with a branch")

	bus.SetPC(0x08000000)
	assert.Equal(t, byte(0), bus.Read8(0x00000000), "BIOS unreadable from outside")
}

func TestAccessCyclesDefaults(t *testing.T) {
	bus := newTestBus(t, nil)

	tests := []struct {
		name   string
		addr   uint32
		word   bool
		cycles int
	}{
		{"BIOS 16-bit", 0x00000000, false, 1},
		{"IRAM 32-bit", 0x03000000, true, 1},
		{"IO 32-bit", 0x04000000, true, 1},
		{"OAM 16-bit", 0x07000000, false, 1},
		{"WRAM 16-bit", 0x02000000, false, 3},
		{"WRAM 32-bit", 0x02000000, true, 6},
		{"PAL 16-bit", 0x05000000, false, 1},
		{"PAL 32-bit", 0x05000000, true, 2},
		{"VRAM 32-bit", 0x06000000, true, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.cycles, bus.AccessCycles(tt.addr, tt.word, false))
			assert.Equal(t, tt.cycles, bus.AccessCycles(tt.addr, tt.word, true))
		})
	}
}

func TestWaitstateLUT(t *testing.T) {
	bus := newTestBus(t, nil)

	// WS0 N=3 (8 waits), S=1 (1 wait); WS1 N=0, S=0; WS2 N=2, S=1.
	bus.Write16(0x04000204, 0x0000|3<<2|1<<4|0<<5|0<<7|2<<8|1<<10)

	t.Run("WS0", func(t *testing.T) {
		assert.Equal(t, 1+8, bus.AccessCycles(0x08000000, false, false))
		assert.Equal(t, 1+1, bus.AccessCycles(0x08000000, false, true))
		assert.Equal(t, (1+8)+(1+1), bus.AccessCycles(0x08000000, true, false))
		assert.Equal(t, 2*(1+1), bus.AccessCycles(0x08000000, true, true))
		assert.Equal(t, bus.AccessCycles(0x08000000, false, false), bus.AccessCycles(0x09000000, false, false))
	})

	t.Run("WS1", func(t *testing.T) {
		assert.Equal(t, 1+4, bus.AccessCycles(0x0A000000, false, false))
		assert.Equal(t, 1+4, bus.AccessCycles(0x0A000000, false, true))
		assert.Equal(t, 2*(1+4), bus.AccessCycles(0x0A000000, true, true))
	})

	t.Run("WS2", func(t *testing.T) {
		assert.Equal(t, 1+2, bus.AccessCycles(0x0C000000, false, false))
		assert.Equal(t, 1+1, bus.AccessCycles(0x0C000000, false, true))
		assert.Equal(t, (1+2)+(1+1), bus.AccessCycles(0x0C000000, true, false))
	})

	t.Run("SRAM", func(t *testing.T) {
		bus.Write16(0x04000204, 3) // SRAM waits = 8
		assert.Equal(t, 1+8, bus.AccessCycles(0x0E000000, false, false))
		assert.Equal(t, 1+8, bus.AccessCycles(0x0E000000, true, true))
	})
}

func TestSRAMBackup(t *testing.T) {
	rom := make([]byte, 0x100)
	copy(rom[0x40:], []byte("SRAM_V113"))
	bus := newTestBus(t, rom)

	require.Equal(t, SaveSRAM, bus.Cart.SaveType())
	bus.Write8(0x0E000123, 0x42)
	assert.Equal(t, byte(0x42), bus.Read8(0x0E000123))
}
