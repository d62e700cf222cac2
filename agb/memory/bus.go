package memory

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-agb/agb/irq"
	"github.com/valerio/go-agb/agb/video"
)

// Memory regions, selected by the top nibble of the address.
const (
	regionBIOS  = 0x0
	regionWRAM  = 0x2
	regionIRAM  = 0x3
	regionIO    = 0x4
	regionPAL   = 0x5
	regionVRAM  = 0x6
	regionOAM   = 0x7
	regionROM0  = 0x8
	regionROM0B = 0x9
	regionROM1  = 0xA
	regionROM1B = 0xB
	regionROM2  = 0xC
	regionROM2B = 0xD
	regionSRAM  = 0xE
	regionSRAMB = 0xF
)

// Waitstate cycle tables. The non-sequential table is shared by every
// gamepak image and by SRAM; the sequential tables differ per image.
var (
	wsNonSeq = [4]int{4, 3, 2, 8}
	wsSeq0   = [2]int{2, 1}
	wsSeq1   = [2]int{4, 1}
	wsSeq2   = [2]int{8, 1}
)

// Waitstate holds the decoded WAITCNT fields.
type Waitstate struct {
	SRAM     int
	WS0N     int
	WS0S     int
	WS1N     int
	WS1S     int
	WS2N     int
	WS2S     int
	PHI      int
	Prefetch bool
	CGB      bool
}

// Bus owns the system memories and routes every guest access to its
// backing store or to the I/O register decode. It also accounts access
// cycles through a pair of lookup tables rebuilt on WAITCNT writes.
type Bus struct {
	BIOS [0x4000]byte
	WRAM [0x40000]byte
	IRAM [0x8000]byte

	Cart *Cartridge
	PPU  *video.PPU
	IRQ  *irq.IRQ

	DMA      [4]DMAChannel
	Timers   [4]Timer
	Wait     Waitstate
	KeyInput uint16

	// cycles16/cycles32 are indexed by [sequential][region nibble].
	cycles16 [2][16]int
	cycles32 [2][16]int

	// pc mirrors the CPU's fetch address; BIOS is only readable while
	// execution is inside it.
	pc uint32
}

// NewBus wires the memory system together. A nil bios installs the
// 64-byte stub so that HLE-mode cores still have a vector area to trap
// into.
func NewBus(cart *Cartridge, bios []byte, ppu *video.PPU, irq *irq.IRQ) (*Bus, error) {
	b := &Bus{
		Cart:     cart,
		PPU:      ppu,
		IRQ:      irq,
		KeyInput: 0x3FF,
	}

	if bios != nil {
		if len(bios) > len(b.BIOS) {
			return nil, fmt.Errorf("BIOS too large: %d bytes (max %d)", len(bios), len(b.BIOS))
		}
		copy(b.BIOS[:], bios)
	} else {
		copy(b.BIOS[:], stubBIOS[:])
	}

	b.initCycleLUT()
	b.UpdateCycleLUT()
	return b, nil
}

// SetPC records the CPU fetch address for the BIOS read gate.
func (b *Bus) SetPC(pc uint32) {
	b.pc = pc
}

func (b *Bus) initCycleLUT() {
	for seq := 0; seq < 2; seq++ {
		for region := 0; region < 16; region++ {
			b.cycles16[seq][region] = 1
			b.cycles32[seq][region] = 1
		}
		b.cycles16[seq][regionWRAM] = 3
		b.cycles32[seq][regionWRAM] = 6
		b.cycles32[seq][regionPAL] = 2
		b.cycles32[seq][regionVRAM] = 2
	}
}

// UpdateCycleLUT recomputes the gamepak and SRAM entries of the cycle
// tables from WAITCNT. Called on every WAITCNT write.
func (b *Bus) UpdateCycleLUT() {
	const nseq, seq = 0, 1

	sram := 1 + wsNonSeq[b.Wait.SRAM]
	for s := 0; s < 2; s++ {
		b.cycles16[s][regionSRAM] = sram
		b.cycles32[s][regionSRAM] = sram
		b.cycles16[s][regionSRAMB] = sram
		b.cycles32[s][regionSRAMB] = sram
	}

	n16 := [3]int{
		1 + wsNonSeq[b.Wait.WS0N],
		1 + wsNonSeq[b.Wait.WS1N],
		1 + wsNonSeq[b.Wait.WS2N],
	}
	s16 := [3]int{
		1 + wsSeq0[b.Wait.WS0S],
		1 + wsSeq1[b.Wait.WS1S],
		1 + wsSeq2[b.Wait.WS2S],
	}

	for image := 0; image < 3; image++ {
		for i := 0; i < 2; i++ {
			region := regionROM0 + image*2 + i
			b.cycles16[nseq][region] = n16[image]
			b.cycles16[seq][region] = s16[image]
			// A 32-bit gamepak access is one 16-bit access followed by a
			// sequential one.
			b.cycles32[nseq][region] = n16[image] + s16[image]
			b.cycles32[seq][region] = 2 * s16[image]
		}
	}
}

// AccessCycles returns the cycle cost of an access of the given width
// and sequentiality. Byte accesses cost the same as halfwords.
func (b *Bus) AccessCycles(address uint32, word, sequential bool) int {
	region := (address >> 24) & 0xF
	seq := 0
	if sequential {
		seq = 1
	}
	if word {
		return b.cycles32[seq][region]
	}
	return b.cycles16[seq][region]
}

func (b *Bus) Read8(address uint32) byte {
	region := address >> 24
	offset := address & 0xFFFFFF

	switch region {
	case regionBIOS:
		if offset >= 0x4000 {
			slog.Debug("BIOS read out of bounds", "addr", fmt.Sprintf("0x%08X", address))
			return 0
		}
		if b.pc >= 0x4000 {
			slog.Debug("BIOS read while executing outside BIOS", "addr", fmt.Sprintf("0x%08X", address), "pc", fmt.Sprintf("0x%08X", b.pc))
			return 0
		}
		return b.BIOS[offset]
	case regionWRAM:
		return b.WRAM[offset%0x40000]
	case regionIRAM:
		return b.IRAM[offset%0x8000]
	case regionIO:
		return b.ioRead8(address)
	case regionPAL:
		return b.PPU.PAL[offset%0x400]
	case regionVRAM:
		return b.PPU.VRAM[vramOffset(offset)]
	case regionOAM:
		return b.PPU.OAM[offset%0x400]
	case regionROM0, regionROM0B, regionROM1, regionROM1B, regionROM2, regionROM2B:
		return b.Cart.Read(address & 0x1FFFFFF)
	case regionSRAM, regionSRAMB:
		if b.Cart.backup != nil {
			return b.Cart.backup.Read(offset)
		}
		return 0
	default:
		slog.Debug("Read from unmapped address", "addr", fmt.Sprintf("0x%08X", address))
		return 0
	}
}

func (b *Bus) Read16(address uint32) uint16 {
	address &= ^uint32(1)
	return uint16(b.Read8(address)) | uint16(b.Read8(address+1))<<8
}

func (b *Bus) Read32(address uint32) uint32 {
	address &= ^uint32(3)
	return uint32(b.Read16(address)) | uint32(b.Read16(address+2))<<16
}

func (b *Bus) Write8(address uint32, value byte) {
	region := address >> 24
	offset := address & 0xFFFFFF

	switch region {
	case regionBIOS:
		slog.Debug("Dropped write to BIOS", "addr", fmt.Sprintf("0x%08X", address))
	case regionWRAM:
		b.WRAM[offset%0x40000] = value
	case regionIRAM:
		b.IRAM[offset%0x8000] = value
	case regionIO:
		b.ioWrite8(address, value)
	case regionPAL, regionVRAM:
		// Narrow writes widen to a halfword with the value in both lanes.
		b.Write16(address&^uint32(1), uint16(value)|uint16(value)<<8)
	case regionOAM:
		// Narrow OAM writes are dropped.
	case regionROM0, regionROM0B, regionROM1, regionROM1B, regionROM2, regionROM2B:
		slog.Debug("Dropped write to ROM", "addr", fmt.Sprintf("0x%08X", address))
	case regionSRAM, regionSRAMB:
		if b.Cart.backup != nil {
			b.Cart.backup.Write(offset, value)
		}
	default:
		slog.Debug("Write to unmapped address", "addr", fmt.Sprintf("0x%08X", address))
	}
}

func (b *Bus) Write16(address uint32, value uint16) {
	address &= ^uint32(1)
	region := address >> 24
	offset := address & 0xFFFFFF

	// Halfword writes to the video memories hit both byte lanes
	// directly; everything else decomposes into byte writes.
	switch region {
	case regionPAL:
		base := offset % 0x400
		b.PPU.PAL[base] = byte(value)
		b.PPU.PAL[(base+1)%0x400] = byte(value >> 8)
	case regionVRAM:
		base := vramOffset(offset)
		b.PPU.VRAM[base] = byte(value)
		b.PPU.VRAM[vramOffset(offset+1)] = byte(value >> 8)
	case regionOAM:
		base := offset % 0x400
		b.PPU.OAM[base] = byte(value)
		b.PPU.OAM[(base+1)%0x400] = byte(value >> 8)
	default:
		b.Write8(address, byte(value))
		b.Write8(address+1, byte(value>>8))
	}
}

func (b *Bus) Write32(address uint32, value uint32) {
	address &= ^uint32(3)
	b.Write16(address, uint16(value))
	b.Write16(address+2, uint16(value>>16))
}

// vramOffset mirrors a region-6 offset into the 96 KiB VRAM array: the
// 128 KiB window wraps, and its top 32 KiB fold back onto the sprite
// tile area.
func vramOffset(offset uint32) uint32 {
	offset %= 0x20000
	if offset >= 0x18000 {
		offset -= 0x8000
	}
	return offset
}
