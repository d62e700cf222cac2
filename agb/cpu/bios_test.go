package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// swiCall executes a single ARM SWI with registers preloaded.
func swiCall(t *testing.T, number uint32, setup func(*CPU, *testBus)) (*CPU, *testBus) {
	t.Helper()
	bus := newTestBus()
	bus.loadARM(0x08000000, 0xEF000000|number<<16)
	c := New(bus, true)
	if setup != nil {
		setup(c, bus)
	}
	run(c, 1)
	return c, bus
}

func TestSWIDiv(t *testing.T) {
	tests := []struct {
		name         string
		r0, r1       uint32
		wantQuotient uint32
		wantRemaind  uint32
	}{
		{"exact", 100, 10, 10, 0},
		{"with remainder", 100, 9, 11, 1},
		{"dividend smaller", 3, 7, 0, 3},
		{"large values", 0xFFFFFFFF, 0x10000, 0xFFFF, 0xFFFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := swiCall(t, 0x06, func(c *CPU, _ *testBus) {
				c.SetReg(0, tt.r0)
				c.SetReg(1, tt.r1)
			})
			assert.Equal(t, tt.wantQuotient, c.Reg(0))
			assert.Equal(t, tt.wantRemaind, c.Reg(1))
		})
	}
}

func TestSWICpuSet(t *testing.T) {
	t.Run("halfword copy", func(t *testing.T) {
		_, bus := swiCall(t, 0x0B, func(c *CPU, b *testBus) {
			for i := uint32(0); i < 4; i++ {
				b.Write16(0x03000000+i*2, uint16(0x1000+i))
			}
			c.SetReg(0, 0x03000000)
			c.SetReg(1, 0x03000100)
			c.SetReg(2, 4)
		})
		for i := uint32(0); i < 4; i++ {
			assert.Equal(t, uint16(0x1000+i), bus.Read16(0x03000100+i*2))
		}
	})

	t.Run("word fill with fixed source", func(t *testing.T) {
		_, bus := swiCall(t, 0x0B, func(c *CPU, b *testBus) {
			b.Write32(0x03000000, 0xABCD1234)
			c.SetReg(0, 0x03000000)
			c.SetReg(1, 0x03000100)
			c.SetReg(2, 3|1<<24|1<<26)
		})
		for i := uint32(0); i < 3; i++ {
			assert.Equal(t, uint32(0xABCD1234), bus.Read32(0x03000100+i*4))
		}
	})
}

func TestSWICpuFastSet(t *testing.T) {
	t.Run("copies word blocks", func(t *testing.T) {
		_, bus := swiCall(t, 0x0C, func(c *CPU, b *testBus) {
			for i := uint32(0); i < 8; i++ {
				b.Write32(0x03000000+i*4, 0xA0000000+i)
			}
			c.SetReg(0, 0x03000000)
			c.SetReg(1, 0x03000200)
			c.SetReg(2, 8)
		})
		for i := uint32(0); i < 8; i++ {
			assert.Equal(t, uint32(0xA0000000+i), bus.Read32(0x03000200+i*4))
		}
	})

	t.Run("replicates the first word when fixed", func(t *testing.T) {
		_, bus := swiCall(t, 0x0C, func(c *CPU, b *testBus) {
			b.Write32(0x03000000, 0x55AA55AA)
			b.Write32(0x03000004, 0xFFFFFFFF)
			c.SetReg(0, 0x03000000)
			c.SetReg(1, 0x03000200)
			c.SetReg(2, 8|1<<24)
		})
		for i := uint32(0); i < 8; i++ {
			assert.Equal(t, uint32(0x55AA55AA), bus.Read32(0x03000200+i*4))
		}
	})
}

func TestSWILZ77(t *testing.T) {
	t.Run("literal-only stream", func(t *testing.T) {
		literals := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
		_, bus := swiCall(t, 0x11, func(c *CPU, b *testBus) {
			b.Write32(0x03000000, uint32(len(literals))<<8) // header
			b.Write8(0x03000004, 0x00)                      // encoder: 8 literals
			for i, v := range literals {
				if i < 8 {
					b.Write8(0x03000005+uint32(i), v)
				}
			}
			b.Write8(0x0300000D, 0x00) // encoder for the next 4
			for i := 8; i < 12; i++ {
				b.Write8(0x0300000E+uint32(i-8), literals[i])
			}
			c.SetReg(0, 0x03000000)
			c.SetReg(1, 0x03000100)
		})
		for i, v := range literals {
			assert.Equal(t, v, bus.Read8(0x03000100+uint32(i)), "byte %d", i)
		}
	})

	t.Run("back-reference copies", func(t *testing.T) {
		// Two literals "AB", then a compressed token with disp 1 and
		// length 4 that copies from dest-2, repeating them twice:
		// "ABABAB".
		_, bus := swiCall(t, 0x12, func(c *CPU, b *testBus) {
			b.Write32(0x03000000, 6<<8)
			b.Write8(0x03000004, 0x20) // third token compressed
			b.Write8(0x03000005, 'A')
			b.Write8(0x03000006, 'B')
			// (length-3)=1 in high nibble of b1, disp=1
			b.Write8(0x03000007, 0x10)
			b.Write8(0x03000008, 0x01)
			c.SetReg(0, 0x03000000)
			c.SetReg(1, 0x03000100)
		})
		want := []byte{'A', 'B', 'A', 'B', 'A', 'B'}
		for i, v := range want {
			assert.Equal(t, v, bus.Read8(0x03000100+uint32(i)), "byte %d", i)
		}
	})
}

func TestSWIUnknownNumberIsIgnored(t *testing.T) {
	c, _ := swiCall(t, 0xFF, func(c *CPU, _ *testBus) {
		c.SetReg(0, 0x1234)
	})
	assert.Equal(t, uint32(0x1234), c.Reg(0), "registers untouched")
	assert.Equal(t, ModeUser, c.Mode(), "no exception raised")
}
