package video

// Scanline renderer. Each background and sprite priority renders into a
// per-line buffer first; the compositor then merges them into the front
// buffer, honoring priorities and windows. Transparency is keyed on a
// zero high byte.

type spriteShape int

const (
	shapeSquare spriteShape = iota
	shapeHorizontal
	shapeVertical
	shapeProhibited
)

// spriteDimensions maps shape x size to pixel width/height.
var spriteDimensions = [3][4][2]int{
	{{8, 8}, {16, 16}, {32, 32}, {64, 64}},
	{{16, 8}, {32, 8}, {32, 16}, {64, 32}},
	{{8, 16}, {8, 32}, {16, 32}, {32, 64}},
}

const objTileBase = 0x10000

// decodeRGB5 converts GBA RGB555 to opaque ARGB 8888.
func decodeRGB5(color uint16) uint32 {
	return 0xFF000000 |
		(uint32(color&0x1F) * 8 << 16) |
		(uint32((color>>5)&0x1F) * 8 << 8) |
		(uint32((color>>10)&0x1F) * 8)
}

func (p *PPU) palColor(base uint32, index uint32) uint32 {
	offset := (base + index*2) & 0x3FF
	return decodeRGB5(uint16(p.PAL[offset]) | uint16(p.PAL[offset+1])<<8)
}

// decodeTileLine4 decodes one 8-pixel line of a 4bpp tile into the
// shared tile scratch. Palette index 0 decodes with a zero high byte.
func (p *PPU) decodeTileLine4(blockBase, paletteBase uint32, number, line int) *[8]uint32 {
	offset := blockBase + uint32(number)*32 + uint32(line)*4
	for i := 0; i < 4; i++ {
		value := p.VRAM[(offset+uint32(i))&0x17FFF]
		left := uint32(value & 0xF)
		right := uint32(value >> 4)
		leftColor := p.palColor(paletteBase, left)
		rightColor := p.palColor(paletteBase, right)
		if left == 0 {
			leftColor &= ^uint32(0xFF000000)
		}
		if right == 0 {
			rightColor &= ^uint32(0xFF000000)
		}
		p.tileline[i*2] = leftColor
		p.tileline[i*2+1] = rightColor
	}
	return &p.tileline
}

// decodeTileLine8 decodes one 8-pixel line of an 8bpp tile. Sprites use
// the upper palette half at 0x200.
func (p *PPU) decodeTileLine8(blockBase uint32, number, line int, sprite bool) *[8]uint32 {
	offset := blockBase + uint32(number)*64 + uint32(line)*8
	paletteBase := uint32(0)
	if sprite {
		paletteBase = 0x200
	}
	for i := 0; i < 8; i++ {
		value := uint32(p.VRAM[(offset+uint32(i))&0x17FFF])
		color := p.palColor(paletteBase, value)
		if value == 0 {
			color &= ^uint32(0xFF000000)
		}
		p.tileline[i] = color
	}
	return &p.tileline
}

func (p *PPU) decodeTilePixel8(blockBase uint32, number, line, column int) uint32 {
	value := uint32(p.VRAM[(blockBase+uint32(number)*64+uint32(line)*8+uint32(column))&0x17FFF])
	color := p.palColor(0, value)
	if value == 0 {
		color &= ^uint32(0xFF000000)
	}
	return color
}

// renderText renders one scanline of a text (tile map) background into
// its line buffer, applying scroll and wrap.
func (p *PPU) renderText(id int) {
	bg := &p.BG[id]

	width := ((bg.Size & 1) + 1) * 256
	height := ((bg.Size >> 1) + 1) * 256
	yScrolled := (int(p.VCount) + int(bg.Y)) % height
	row := yScrolled / 8
	rowRemainder := yScrolled % 8
	leftArea := 0
	rightArea := 1

	if row >= 32 {
		leftArea = (bg.Size & 1) + 1
		rightArea = 3
		row -= 32
	}

	offset := bg.MapBase + uint32(leftArea)*0x800 + uint32(64*row)

	for x := 0; x < width/8; x++ {
		entry := uint16(p.VRAM[offset&0x17FFF]) | uint16(p.VRAM[(offset+1)&0x17FFF])<<8
		tileNumber := int(entry & 0x3FF)
		hflip := entry&(1<<10) != 0
		vflip := entry&(1<<11) != 0
		line := rowRemainder
		if vflip {
			line = 7 - line
		}

		var tile *[8]uint32
		if bg.EightBPP {
			tile = p.decodeTileLine8(bg.TileBase, tileNumber, line, false)
		} else {
			palette := uint32(entry>>12) * 0x20
			tile = p.decodeTileLine4(bg.TileBase, palette, tileNumber, line)
		}

		if hflip {
			for i := 0; i < 8; i++ {
				p.lineBuffer[x*8+i] = tile[7-i]
			}
		} else {
			for i := 0; i < 8; i++ {
				p.lineBuffer[x*8+i] = tile[i]
			}
		}

		if x == 31 {
			offset = bg.MapBase + uint32(rightArea)*0x800 + uint32(64*row)
		} else {
			offset += 2
		}
	}

	for i := 0; i < ScreenWidth; i++ {
		p.bgBuffer[id][i] = p.lineBuffer[(int(bg.X)+i)%width]
	}
}

// renderAffine renders one scanline of a rotate/scale background. The
// affine map is a flat byte array of 8bpp tile numbers.
func (p *PPU) renderAffine(id int) {
	bg := &p.BG[id]

	blocks := (bg.Size + 1) << 4
	size := blocks * 8
	pa := DecodeFixed16(bg.PA)
	pb := DecodeFixed16(bg.PB)
	pc := DecodeFixed16(bg.PC)
	pd := DecodeFixed16(bg.PD)
	line := float64(p.VCount)

	for i := 0; i < ScreenWidth; i++ {
		x := int(bg.XRefInt + pa*float64(i) + pb*line)
		y := int(bg.YRefInt + pc*float64(i) + pd*line)

		if x >= size || y >= size || x < 0 || y < 0 {
			if !bg.Wraparound {
				p.bgBuffer[id][i] = 0
				continue
			}
			x = ((x % size) + size) % size
			y = ((y % size) + size) % size
		}

		tileNumber := int(p.VRAM[(bg.MapBase+uint32(y/8*blocks+x/8))&0x17FFF])
		p.bgBuffer[id][i] = p.decodeTilePixel8(bg.TileBase, tileNumber, y%8, x%8)
	}
}

// renderBitmap renders one scanline of the mode 3/4/5 bitmap layers.
// All three draw on BG2.
func (p *PPU) renderBitmap() {
	page := uint32(0)
	if p.FrameSelect {
		page = 0xA000
	}

	switch p.VideoMode {
	case 3:
		offset := uint32(p.VCount) * ScreenWidth * 2
		for x := 0; x < ScreenWidth; x++ {
			p.bgBuffer[2][x] = decodeRGB5(uint16(p.VRAM[offset]) | uint16(p.VRAM[offset+1])<<8)
			offset += 2
		}
	case 4:
		for x := 0; x < ScreenWidth; x++ {
			index := uint32(p.VRAM[page+uint32(p.VCount)*ScreenWidth+uint32(x)])
			p.bgBuffer[2][x] = p.palColor(0, index)
		}
	case 5:
		offset := page + uint32(p.VCount)*160*2
		for x := 0; x < ScreenWidth; x++ {
			if x < 160 && p.VCount < 128 {
				p.bgBuffer[2][x] = decodeRGB5(uint16(p.VRAM[offset]) | uint16(p.VRAM[offset+1])<<8)
				offset += 2
			} else {
				// The surround fills with palette color 0.
				p.bgBuffer[2][x] = p.palColor(0, 0)
			}
		}
	}
}

// renderSprites renders every OAM entry of the given priority into that
// priority's object buffer. Entries walk in reverse index order so that
// OBJ0 overlays OBJ127.
func (p *PPU) renderSprites(priority int) {
	offset := 127 * 8

	for i := 0; i < 128; i++ {
		attr0 := uint16(p.OAM[offset]) | uint16(p.OAM[offset+1])<<8
		attr1 := uint16(p.OAM[offset+2]) | uint16(p.OAM[offset+3])<<8
		attr2 := uint16(p.OAM[offset+4]) | uint16(p.OAM[offset+5])<<8
		offset -= 8

		if int(attr2>>10)&3 != priority {
			continue
		}

		shape := spriteShape(attr0 >> 14)
		if shape == shapeProhibited {
			continue
		}
		size := int(attr1 >> 14)
		width := spriteDimensions[shape][size][0]
		height := spriteDimensions[shape][size][1]

		x := int(attr1 & 0x1FF)
		y := int(attr0 & 0xFF)
		if int(p.VCount) < y || int(p.VCount) > y+height-1 {
			continue
		}

		internalLine := int(p.VCount) - y
		tilesPerRow := width / 8
		tileNumber := int(attr2 & 0x3FF)
		paletteNumber := uint32(attr2 >> 12)
		rotateScale := attr0&(1<<8) != 0
		hflip := !rotateScale && attr1&(1<<12) != 0
		vflip := !rotateScale && attr1&(1<<13) != 0
		eightBPP := attr0&(1<<13) != 0

		// In 256-color mode the tile index counts in 32-byte steps but
		// tiles are 64 bytes, halving the effective number.
		if eightBPP {
			tileNumber /= 2
		}

		if vflip {
			internalLine = height - internalLine
		}
		displacementY := internalLine % 8
		row := (internalLine - displacementY) / 8
		if vflip {
			displacementY = 7 - displacementY
			row = height/8 - row
		}

		for j := 0; j < tilesPerRow; j++ {
			var currentTile int
			if !p.Obj.OneDimensional {
				currentTile = tileNumber + row*32 + j
			} else {
				currentTile = tileNumber + row*tilesPerRow + j
			}

			var tile *[8]uint32
			if eightBPP {
				tile = p.decodeTileLine8(objTileBase, currentTile, displacementY, true)
			} else {
				tile = p.decodeTileLine4(objTileBase, 0x200+paletteNumber*0x20, currentTile, displacementY)
			}

			for k := 0; k < 8; k++ {
				var dst int
				if hflip {
					dst = x + (tilesPerRow-j-1)*8 + (7 - k)
				} else {
					dst = x + j*8 + k
				}
				color := tile[k]
				if color>>24 != 0 && dst >= 0 && dst < ScreenWidth {
					p.objBuffer[priority][dst] = color
				}
			}
		}
	}
}

// overlayLine copies the opaque pixels of src over dst.
func overlayLine(dst, src *[ScreenWidth]uint32) {
	for i := 0; i < ScreenWidth; i++ {
		if src[i]>>24 != 0 {
			dst[i] = src[i] | 0xFF000000
		}
	}
}

// drawLine writes the opaque pixels of the line buffer into the front
// buffer. The first background drawn also supplies the backdrop, so it
// writes unconditionally.
func (p *PPU) drawLine(line *[ScreenWidth]uint32, backdrop bool) {
	y := int(p.VCount)
	for i := 0; i < ScreenWidth; i++ {
		if backdrop || line[i]>>24 != 0 {
			p.fb.SetPixel(i, y, line[i]|0xFF000000)
		}
	}
}

// lineInWindow reports whether the current scanline falls inside the
// window's vertical range, accounting for wrapped bounds.
func (p *PPU) lineInWindow(w *Window) bool {
	v := w.Top <= w.Bottom &&
		p.VCount >= w.Top && p.VCount < w.Bottom
	wrapped := w.Top > w.Bottom &&
		(p.VCount >= w.Top || p.VCount < w.Bottom)
	return v || wrapped
}

// renderScanline renders the just-elapsed scanline into the front
// buffer. Called once per line, on HBlank entry.
func (p *PPU) renderScanline() {
	for i := range p.objBuffer {
		for j := range p.objBuffer[i] {
			p.objBuffer[i][j] = 0
		}
	}

	if p.ForcedBlank {
		for i := 0; i < ScreenWidth; i++ {
			p.fb.SetPixel(i, int(p.VCount), 0xFFF8F8F8)
		}
		return
	}

	switch p.VideoMode {
	case 0:
		for i := 0; i < 4; i++ {
			if p.BG[i].Enable {
				p.renderText(i)
			}
		}
	case 1:
		if p.BG[0].Enable {
			p.renderText(0)
		}
		if p.BG[1].Enable {
			p.renderText(1)
		}
		if p.BG[2].Enable {
			p.renderAffine(2)
		}
	case 2:
		if p.BG[2].Enable {
			p.renderAffine(2)
		}
		if p.BG[3].Enable {
			p.renderAffine(3)
		}
	case 3, 4, 5:
		if p.BG[2].Enable {
			p.renderBitmap()
		}
	}

	if p.Obj.Enable {
		for priority := 0; priority < 4; priority++ {
			p.renderSprites(priority)
		}
	}

	p.compose()
}

// compose merges the line buffers into the front buffer, lowest
// priority first so that later writes win within a level. Backgrounds
// draw before sprites at the same priority.
func (p *PPU) compose() {
	firstBG := true
	windowed := p.Win[0].Enable || p.Win[1].Enable || p.ObjWin.Enable

	if !windowed {
		for priority := 3; priority >= 0; priority-- {
			for id := 3; id >= 0; id-- {
				if p.BG[id].Enable && p.BG[id].Priority == priority {
					p.drawLine(&p.bgBuffer[id], firstBG)
					firstBG = false
				}
			}
			if p.Obj.Enable {
				p.drawLine(&p.objBuffer[priority], false)
			}
		}
		return
	}

	// Outer area first, using the WINOUT enables.
	for priority := 3; priority >= 0; priority-- {
		for id := 3; id >= 0; id-- {
			if p.BG[id].Enable && p.BG[id].Priority == priority && p.WinOut.BG[id] {
				p.drawLine(&p.bgBuffer[id], firstBG)
				firstBG = false
			}
		}
		if p.Obj.Enable && p.WinOut.Obj {
			p.drawLine(&p.objBuffer[priority], false)
		}
	}

	// Inner windows, window 1 first so that window 0 takes precedence.
	for w := 1; w >= 0; w-- {
		win := &p.Win[w]
		if !win.Enable || !p.lineInWindow(win) {
			continue
		}

		// Anything not covered by an enabled layer stays black.
		for i := range p.winBuffer {
			p.winBuffer[i] = 0xFF000000
		}

		for priority := 3; priority >= 0; priority-- {
			for id := 3; id >= 0; id-- {
				if p.BG[id].Enable && p.BG[id].Priority == priority && win.BGIn[id] {
					overlayLine(&p.winBuffer, &p.bgBuffer[id])
				}
			}
			if p.Obj.Enable && win.ObjIn {
				overlayLine(&p.winBuffer, &p.objBuffer[priority])
			}
		}

		// Clear the buffer outside the horizontal bounds, wrapping when
		// left exceeds right.
		if win.Left <= win.Right {
			for i := 0; i < int(win.Left) && i < ScreenWidth; i++ {
				p.winBuffer[i] = 0
			}
			for i := int(win.Right); i < ScreenWidth; i++ {
				p.winBuffer[i] = 0
			}
		} else {
			for i := int(win.Right); i < int(win.Left) && i < ScreenWidth; i++ {
				p.winBuffer[i] = 0
			}
		}

		p.drawLine(&p.winBuffer, false)
	}
}
