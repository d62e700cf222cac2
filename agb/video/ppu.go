package video

import (
	"github.com/valerio/go-agb/agb/addr"
	"github.com/valerio/go-agb/agb/irq"
)

// PPUState is one of the three scanline substates.
type PPUState int

const (
	Scanline PPUState = iota
	HBlank
	VBlank
)

const (
	scanlineTicks = 960
	hblankTicks   = 272
	vblankTicks   = scanlineTicks + hblankTicks
	vblankLine    = 160
	totalLines    = 228
)

// Background holds the decoded state of one of the four backgrounds.
// BG2 and BG3 additionally carry the affine transform; the reference
// point keeps both the raw register value and the decoded internal copy
// that is re-latched on VBlank entry.
type Background struct {
	Enable     bool
	Mosaic     bool
	EightBPP   bool
	Wraparound bool
	Priority   int
	Size       int
	TileBase   uint32
	MapBase    uint32
	X          uint32
	Y          uint32
	XRef       uint32
	YRef       uint32
	XRefInt    float64
	YRefInt    float64
	PA         uint16
	PB         uint16
	PC         uint16
	PD         uint16
}

// Object holds the OAM-global sprite configuration from DISPCNT.
type Object struct {
	Enable         bool
	HBlankAccess   bool
	OneDimensional bool
}

// Window is one of the two inner windows. The bounds define the
// rectangle [Left, Right) x [Top, Bottom); if a minimum exceeds its
// maximum the window wraps around that axis.
type Window struct {
	Enable bool
	BGIn   [4]bool
	ObjIn  bool
	SfxIn  bool
	Left   uint16
	Right  uint16
	Top    uint16
	Bottom uint16
}

// WindowOuter holds the enable bits applied outside every window.
type WindowOuter struct {
	BG  [4]bool
	Obj bool
	Sfx bool
}

// ObjectWindow is the OBJ window. Mask generation from sprite pixels is
// not implemented; only the enable bit is tracked so that windowed
// composition kicks in.
type ObjectWindow struct {
	Enable bool
}

// PPU owns palette RAM, VRAM, OAM and all display registers, and drives
// the scanline state machine. It renders one scanline into the front
// buffer on each HBlank entry.
type PPU struct {
	PAL  [0x400]byte
	VRAM [0x18000]byte
	OAM  [0x400]byte

	BG     [4]Background
	Obj    Object
	Win    [2]Window
	WinOut WindowOuter
	ObjWin ObjectWindow

	VideoMode     int
	FrameSelect   bool
	ForcedBlank   bool
	VCount        uint16
	VCountSetting uint8
	VBlankIRQ     bool
	HBlankIRQ     bool
	VCountIRQ     bool

	// One-shot DMA triggers, raised on blanking entry and consumed by
	// the DMA arbitration step.
	HBlankDMA bool
	VBlankDMA bool

	// FrameReady is set when VCOUNT wraps to 0 and cleared by the caller.
	FrameReady bool

	State PPUState
	ticks int

	irq *irq.IRQ
	fb  *FrameBuffer

	// Per-scanline scratch, reused across tiles and lines.
	bgBuffer   [4][ScreenWidth]uint32
	objBuffer  [4][ScreenWidth]uint32
	winBuffer  [ScreenWidth]uint32
	lineBuffer [512]uint32
	tileline   [8]uint32
}

func NewPPU(irq *irq.IRQ) *PPU {
	return &PPU{
		irq: irq,
		fb:  NewFrameBuffer(),
	}
}

// FrameBuffer returns the front buffer. The caller must not hold on to
// it across a RunFor call without copying.
func (p *PPU) FrameBuffer() *FrameBuffer {
	return p.fb
}

// VBlankActive reports the DISPSTAT VBlank flag. The flag covers lines
// 160..226; it drops on the final line of the frame.
func (p *PPU) VBlankActive() bool {
	return p.VCount >= vblankLine && p.VCount <= totalLines-2
}

// HBlankActive reports the DISPSTAT HBlank flag.
func (p *PPU) HBlankActive() bool {
	return p.State == HBlank
}

// VCountMatch reports the DISPSTAT VCount match flag.
func (p *PPU) VCountMatch() bool {
	return p.VCount == uint16(p.VCountSetting)
}

// Step advances the scanline state machine by one tick (one CPU clock).
func (p *PPU) Step() {
	p.ticks++

	switch p.State {
	case Scanline:
		if p.ticks >= scanlineTicks {
			p.ticks = 0
			p.State = HBlank
			p.HBlankDMA = true
			if p.HBlankIRQ {
				p.irq.Request(addr.HBlankInterrupt)
			}
			if p.VCount < vblankLine {
				p.renderScanline()
			}
		}
	case HBlank:
		if p.ticks >= hblankTicks {
			p.ticks = 0
			p.HBlankDMA = false
			p.advanceLine()
			if p.VCount == vblankLine {
				p.State = VBlank
				p.VBlankDMA = true
				p.latchAffineReferences()
				if p.VBlankIRQ {
					p.irq.Request(addr.VBlankInterrupt)
				}
			} else {
				p.State = Scanline
			}
		}
	case VBlank:
		if p.ticks >= vblankTicks {
			p.ticks = 0
			p.advanceLine()
			if p.VCount == 0 {
				p.VBlankDMA = false
				p.State = Scanline
				p.FrameReady = true
			}
		}
	}
}

func (p *PPU) advanceLine() {
	p.VCount++
	if p.VCount == totalLines {
		p.VCount = 0
	}
	if p.VCountMatch() && p.VCountIRQ {
		p.irq.Request(addr.VCountInterrupt)
	}
}

// latchAffineReferences reloads the internal affine reference points
// from the reference registers. Happens once per frame, on VBlank entry.
func (p *PPU) latchAffineReferences() {
	for _, n := range []int{2, 3} {
		p.BG[n].XRefInt = DecodeFixed32(p.BG[n].XRef)
		p.BG[n].YRefInt = DecodeFixed32(p.BG[n].YRef)
	}
}

// SetXRef updates an affine reference register and its internal copy.
// Guest writes outside the blanking period take effect immediately,
// matching the immediate re-decode on register write.
func (p *PPU) SetXRef(n int, value uint32) {
	p.BG[n].XRef = value
	p.BG[n].XRefInt = DecodeFixed32(value)
}

func (p *PPU) SetYRef(n int, value uint32) {
	p.BG[n].YRef = value
	p.BG[n].YRefInt = DecodeFixed32(value)
}

// DecodeFixed32 decodes the 20.8 signed fixed-point format of the
// BG2X/BG2Y reference registers. The sign bit sits at bit 27; the low
// byte is the fraction. The integer part arithmetic-shifts down and
// the unsigned fraction always adds onto it.
func DecodeFixed32(number uint32) float64 {
	negative := number&(1<<27) != 0
	intPart := int32((number & ^uint32(0xF0000000)) >> 8)
	if negative {
		intPart = int32(uint32(intPart) | 0xFFF00000)
	}
	fracPart := float64(number&0xFF) / 256
	return float64(intPart) + fracPart
}

// DecodeFixed16 decodes the 8.8 signed fixed-point format of the
// affine matrix registers PA..PD.
func DecodeFixed16(number uint16) float64 {
	negative := number&(1<<15) != 0
	intPart := int32(number >> 8)
	if negative {
		intPart = int32(uint32(intPart) | 0xFFFFFF00)
	}
	fracPart := float64(number&0xFF) / 256
	return float64(intPart) + fracPart
}
