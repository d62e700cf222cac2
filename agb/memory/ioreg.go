package memory

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-agb/agb/addr"
	"github.com/valerio/go-agb/agb/bit"
	"github.com/valerio/go-agb/agb/irq"
	"github.com/valerio/go-agb/agb/video"
)

// I/O register decode. Region 4 is handled at byte granularity: every
// multi-byte register assembles from its byte lanes, so 16 and 32-bit
// guest accesses simply decompose on the bus.

// ioOffset normalizes a region-4 address to its register offset,
// folding the 0x040n0800 mirror onto 0x800. Returns false for
// addresses outside the register file.
func ioOffset(address uint32) (uint32, bool) {
	offset := address & 0xFFFFFF
	if offset&0xFFFF == 0x800 {
		// The undocumented memory control register mirrors through the
		// whole region; every alias decodes like 0x800 itself.
		return 0x800, true
	}
	if offset >= 0x400 {
		return 0, false
	}
	return offset, true
}

func (b *Bus) ioRead8(address uint32) byte {
	offset, ok := ioOffset(address)
	if !ok {
		slog.Debug("IO read out of bounds", "addr", fmt.Sprintf("0x%08X", address))
		return 0
	}

	p := b.PPU

	switch offset {
	case addr.DISPCNT:
		v := byte(p.VideoMode)
		v |= flag(p.FrameSelect, 4)
		v |= flag(p.Obj.HBlankAccess, 5)
		v |= flag(p.Obj.OneDimensional, 6)
		v |= flag(p.ForcedBlank, 7)
		return v
	case addr.DISPCNT + 1:
		var v byte
		for i := 0; i < 4; i++ {
			v |= flag(p.BG[i].Enable, uint(i))
		}
		v |= flag(p.Obj.Enable, 4)
		v |= flag(p.Win[0].Enable, 5)
		v |= flag(p.Win[1].Enable, 6)
		v |= flag(p.ObjWin.Enable, 7)
		return v
	case addr.DISPSTAT:
		v := flag(p.VBlankActive(), 0)
		v |= flag(p.HBlankActive(), 1)
		v |= flag(p.VCountMatch(), 2)
		v |= flag(p.VBlankIRQ, 3)
		v |= flag(p.HBlankIRQ, 4)
		v |= flag(p.VCountIRQ, 5)
		return v
	case addr.DISPSTAT + 1:
		return p.VCountSetting
	case addr.VCOUNT:
		return byte(p.VCount)
	case addr.VCOUNT + 1:
		return byte(p.VCount >> 8)
	case addr.BG0CNT, addr.BG1CNT, addr.BG2CNT, addr.BG3CNT:
		n := (offset - addr.BG0CNT) / 2
		bg := &p.BG[n]
		v := byte(bg.Priority)
		v |= byte(bg.TileBase/0x4000) << 2
		v |= 3 << 4 // bits 4-5 read back set
		v |= flag(bg.Mosaic, 6)
		v |= flag(bg.EightBPP, 7)
		return v
	case addr.BG0CNT + 1, addr.BG1CNT + 1, addr.BG2CNT + 1, addr.BG3CNT + 1:
		n := (offset - addr.BG0CNT - 1) / 2
		bg := &p.BG[n]
		v := byte(bg.MapBase / 0x800)
		v |= flag(bg.Wraparound, 5)
		v |= byte(bg.Size) << 6
		return v
	case addr.WININ:
		return windowEnableBits(&p.Win[0])
	case addr.WININ + 1:
		return windowEnableBits(&p.Win[1])
	case addr.WINOUT:
		var v byte
		for i := 0; i < 4; i++ {
			v |= flag(p.WinOut.BG[i], uint(i))
		}
		v |= flag(p.WinOut.Obj, 4)
		v |= flag(p.WinOut.Sfx, 5)
		return v
	case addr.KEYINPUT:
		return byte(b.KeyInput)
	case addr.KEYINPUT + 1:
		return byte(b.KeyInput >> 8)
	case addr.IE:
		return byte(b.IRQ.IE)
	case addr.IE + 1:
		return byte(b.IRQ.IE >> 8)
	case addr.IF:
		return byte(b.IRQ.IF)
	case addr.IF + 1:
		return byte(b.IRQ.IF >> 8)
	case addr.WAITCNT:
		return byte(b.Wait.SRAM) |
			byte(b.Wait.WS0N)<<2 |
			byte(b.Wait.WS0S)<<4 |
			byte(b.Wait.WS1N)<<5 |
			byte(b.Wait.WS1S)<<7
	case addr.WAITCNT + 1:
		v := byte(b.Wait.WS2N) | byte(b.Wait.WS2S)<<2 | byte(b.Wait.PHI)<<3
		v |= flag(b.Wait.Prefetch, 6)
		v |= 1 << 7
		return v
	case addr.IME:
		return byte(b.IRQ.IME)
	case addr.IME + 1:
		return byte(b.IRQ.IME >> 8)
	}

	// DMA control reads back; everything else in the channel is
	// write-only, as are timers' reload halves (reads observe the count).
	for n := uint32(0); n < 4; n++ {
		base := addr.DMA0CNTH + n*addr.DMAStride
		if offset == base {
			return b.DMA[n].controlLow()
		}
		if offset == base+1 {
			return b.DMA[n].controlHigh()
		}
	}
	for n := uint32(0); n < 4; n++ {
		base := addr.TM0CNTL + n*addr.TMStride
		switch offset {
		case base:
			return byte(b.Timers[n].Count)
		case base + 1:
			return byte(b.Timers[n].Count >> 8)
		case base + 2:
			return b.Timers[n].controlBits()
		case base + 3:
			return 0
		}
	}

	return 0
}

func (b *Bus) ioWrite8(address uint32, value byte) {
	offset, ok := ioOffset(address)
	if !ok {
		slog.Debug("IO write out of bounds", "addr", fmt.Sprintf("0x%08X", address))
		return
	}

	p := b.PPU

	switch offset {
	case addr.DISPCNT:
		p.VideoMode = int(value & 7)
		p.FrameSelect = value&(1<<4) != 0
		p.Obj.HBlankAccess = value&(1<<5) != 0
		p.Obj.OneDimensional = value&(1<<6) != 0
		p.ForcedBlank = value&(1<<7) != 0
		return
	case addr.DISPCNT + 1:
		for i := 0; i < 4; i++ {
			p.BG[i].Enable = value&(1<<uint(i)) != 0
		}
		p.Obj.Enable = value&(1<<4) != 0
		p.Win[0].Enable = value&(1<<5) != 0
		p.Win[1].Enable = value&(1<<6) != 0
		p.ObjWin.Enable = value&(1<<7) != 0
		return
	case addr.DISPSTAT:
		p.VBlankIRQ = value&(1<<3) != 0
		p.HBlankIRQ = value&(1<<4) != 0
		p.VCountIRQ = value&(1<<5) != 0
		return
	case addr.DISPSTAT + 1:
		p.VCountSetting = value
		return
	case addr.BG0CNT, addr.BG1CNT, addr.BG2CNT, addr.BG3CNT:
		n := (offset - addr.BG0CNT) / 2
		bg := &p.BG[n]
		bg.Priority = int(value & 3)
		bg.TileBase = uint32((value>>2)&3) * 0x4000
		bg.Mosaic = value&(1<<6) != 0
		bg.EightBPP = value&(1<<7) != 0
		return
	case addr.BG0CNT + 1, addr.BG1CNT + 1, addr.BG2CNT + 1, addr.BG3CNT + 1:
		n := (offset - addr.BG0CNT - 1) / 2
		bg := &p.BG[n]
		bg.MapBase = uint32(value&31) * 0x800
		if n == 2 || n == 3 {
			bg.Wraparound = value&(1<<5) != 0
		}
		bg.Size = int(value >> 6)
		return
	case addr.WIN0H:
		p.Win[0].Right = uint16(value)
		return
	case addr.WIN0H + 1:
		p.Win[0].Left = uint16(value)
		return
	case addr.WIN1H:
		p.Win[1].Right = uint16(value)
		return
	case addr.WIN1H + 1:
		p.Win[1].Left = uint16(value)
		return
	case addr.WIN0V:
		p.Win[0].Bottom = uint16(value)
		return
	case addr.WIN0V + 1:
		p.Win[0].Top = uint16(value)
		return
	case addr.WIN1V:
		p.Win[1].Bottom = uint16(value)
		return
	case addr.WIN1V + 1:
		p.Win[1].Top = uint16(value)
		return
	case addr.WININ:
		setWindowEnableBits(&p.Win[0], value)
		return
	case addr.WININ + 1:
		setWindowEnableBits(&p.Win[1], value)
		return
	case addr.WINOUT:
		for i := 0; i < 4; i++ {
			p.WinOut.BG[i] = value&(1<<uint(i)) != 0
		}
		p.WinOut.Obj = value&(1<<4) != 0
		p.WinOut.Sfx = value&(1<<5) != 0
		return
	case addr.WINOUT + 1:
		// OBJ window in-enables; mask generation is not implemented.
		return
	case addr.IE:
		b.IRQ.IE = bit.ReplaceByte16(b.IRQ.IE, 0, value)
		return
	case addr.IE + 1:
		b.IRQ.IE = bit.ReplaceByte16(b.IRQ.IE, 1, value)
		return
	case addr.IF:
		b.IRQ.Acknowledge(uint16(value))
		return
	case addr.IF + 1:
		b.IRQ.Acknowledge(uint16(value) << 8)
		return
	case addr.WAITCNT:
		b.Wait.SRAM = int(value & 3)
		b.Wait.WS0N = int((value >> 2) & 3)
		b.Wait.WS0S = int((value >> 4) & 1)
		b.Wait.WS1N = int((value >> 5) & 3)
		b.Wait.WS1S = int(value >> 7)
		b.UpdateCycleLUT()
		return
	case addr.WAITCNT + 1:
		b.Wait.WS2N = int(value & 3)
		b.Wait.WS2S = int((value >> 2) & 1)
		b.Wait.PHI = int((value >> 3) & 3)
		b.Wait.Prefetch = value&(1<<6) != 0
		b.Wait.CGB = value&(1<<7) != 0
		b.UpdateCycleLUT()
		return
	case addr.IME:
		b.IRQ.IME = bit.ReplaceByte16(b.IRQ.IME, 0, value)
		return
	case addr.IME + 1:
		b.IRQ.IME = bit.ReplaceByte16(b.IRQ.IME, 1, value)
		return
	case addr.HALTCNT:
		if value&0x80 != 0 {
			b.IRQ.Halt = irq.Stop
		} else {
			b.IRQ.Halt = irq.Halt
		}
		return
	case addr.KEYINPUT, addr.KEYINPUT + 1:
		// Read-only.
		return
	}

	// Scroll registers: 9 bits, low byte then the single high bit.
	if offset >= addr.BG0HOFS && offset < addr.BG2PA {
		n := (offset - addr.BG0HOFS) / 4
		bg := &p.BG[n]
		vertical := offset&2 != 0
		target := &bg.X
		if vertical {
			target = &bg.Y
		}
		if offset&1 == 0 {
			*target = (*target & 0x100) | uint32(value)
		} else {
			*target = (*target & 0xFF) | (uint32(value&1) << 8)
		}
		return
	}

	// Affine parameters and reference points for BG2/BG3.
	if offset >= addr.BG2PA && offset < addr.WIN0H {
		bgIndex := 2 + int((offset-addr.BG2PA)/0x10)
		bg := &p.BG[bgIndex]
		rel := (offset - addr.BG2PA) & 0xF
		switch {
		case rel < 2:
			bg.PA = bit.ReplaceByte16(bg.PA, uint(rel&1), value)
		case rel < 4:
			bg.PB = bit.ReplaceByte16(bg.PB, uint(rel&1), value)
		case rel < 6:
			bg.PC = bit.ReplaceByte16(bg.PC, uint(rel&1), value)
		case rel < 8:
			bg.PD = bit.ReplaceByte16(bg.PD, uint(rel&1), value)
		case rel < 12:
			p.SetXRef(bgIndex, bit.ReplaceByte(bg.XRef, uint(rel-8), value))
		default:
			p.SetYRef(bgIndex, bit.ReplaceByte(bg.YRef, uint(rel-12), value))
		}
		return
	}

	// DMA channel registers.
	if offset >= addr.DMA0SAD && offset < addr.DMA0SAD+4*addr.DMAStride {
		n := (offset - addr.DMA0SAD) / addr.DMAStride
		ch := &b.DMA[n]
		rel := (offset - addr.DMA0SAD) % addr.DMAStride
		switch {
		case rel < 4:
			ch.Source = bit.ReplaceByte(ch.Source, uint(rel), value)
		case rel < 8:
			ch.Dest = bit.ReplaceByte(ch.Dest, uint(rel-4), value)
		case rel < 10:
			ch.Count = bit.ReplaceByte16(ch.Count, uint(rel-8), value)
		case rel == 10:
			ch.writeControlLow(value)
		default:
			ch.writeControlHigh(int(n), value)
		}
		return
	}

	// Timer registers.
	if offset >= addr.TM0CNTL && offset < addr.TM0CNTL+4*addr.TMStride {
		n := (offset - addr.TM0CNTL) / addr.TMStride
		t := &b.Timers[n]
		switch (offset - addr.TM0CNTL) % addr.TMStride {
		case 0:
			t.Reload = bit.ReplaceByte16(t.Reload, 0, value)
		case 1:
			t.Reload = bit.ReplaceByte16(t.Reload, 1, value)
		case 2:
			t.writeControl(value)
		}
		return
	}
}

func flag(set bool, index uint) byte {
	if set {
		return 1 << index
	}
	return 0
}

func windowEnableBits(w *video.Window) byte {
	var v byte
	for i := 0; i < 4; i++ {
		v |= flag(w.BGIn[i], uint(i))
	}
	v |= flag(w.ObjIn, 4)
	v |= flag(w.SfxIn, 5)
	return v
}

func setWindowEnableBits(w *video.Window, value byte) {
	for i := 0; i < 4; i++ {
		w.BGIn[i] = value&(1<<uint(i)) != 0
	}
	w.ObjIn = value&(1<<4) != 0
	w.SfxIn = value&(1<<5) != 0
}
