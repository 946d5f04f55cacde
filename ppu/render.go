package ppu

// Standard DMG four-shade palette, darkest last, matching the reference
// green-tinted hardware LCD as commonly reproduced in software renderers.
var dmgShades = [4][4]byte{
	{0xE0, 0xF8, 0xD0, 0xFF},
	{0x88, 0xC0, 0x70, 0xFF},
	{0x34, 0x68, 0x56, 0xFF},
	{0x08, 0x18, 0x20, 0xFF},
}

const (
	regLCDC = 0xFF40
	regSCY  = 0xFF42
	regSCX  = 0xFF43
	regBGP  = 0xFF47
	regOBP0 = 0xFF48
	regOBP1 = 0xFF49
	regWY   = 0xFF4A
	regWX   = 0xFF4B
)

// renderScanline fills one row of c.frame from VRAM background/window tiles
// and OAM sprites, honoring LCDC's enable bits.
func (c *Chip) renderScanline() {
	if c.line >= ScreenHeight {
		return
	}
	lcdc := c.bus.Read8(regLCDC)
	if lcdc&0x80 == 0 {
		return // LCD off: leave the framebuffer as-is
	}

	bgp := c.bus.Read8(regBGP)
	row := make([]byte, ScreenWidth)

	if lcdc&0x01 != 0 {
		c.renderBackgroundRow(row, lcdc, bgp)
	}
	if lcdc&0x20 != 0 {
		c.renderWindowRow(row, lcdc, bgp)
	}

	if lcdc&0x02 != 0 {
		c.renderSpriteRow(row, lcdc)
	}

	for x := 0; x < ScreenWidth; x++ {
		c.plot(x, c.line, row[x])
	}
}

func (c *Chip) renderBackgroundRow(row []byte, lcdc, bgp byte) {
	scy := c.bus.Read8(regSCY)
	scx := c.bus.Read8(regSCX)
	y := byte(c.line) + scy

	mapBase := uint16(0x9800)
	if lcdc&0x08 != 0 {
		mapBase = 0x9C00
	}
	tileRow := uint16(y/8) * 32

	for x := 0; x < ScreenWidth; x++ {
		bgx := byte(x) + scx
		tileCol := uint16(bgx / 8)
		tileIdx := c.bus.Read8(mapBase + tileRow + tileCol)
		pixel := c.tilePixel(tileIdx, lcdc, bgx%8, y%8)
		row[x] = paletteLookup(bgp, pixel)
	}
}

func (c *Chip) renderWindowRow(row []byte, lcdc, bgp byte) {
	wy := c.bus.Read8(regWY)
	wx := c.bus.Read8(regWX)
	if c.line < int(wy) {
		return
	}
	mapBase := uint16(0x9800)
	if lcdc&0x40 != 0 {
		mapBase = 0x9C00
	}
	winY := byte(c.line) - wy
	tileRow := uint16(winY/8) * 32

	for x := 0; x < ScreenWidth; x++ {
		wxPos := int(wx) - 7
		if x < wxPos {
			continue
		}
		winX := byte(x - wxPos)
		tileCol := uint16(winX / 8)
		tileIdx := c.bus.Read8(mapBase + tileRow + tileCol)
		pixel := c.tilePixel(tileIdx, lcdc, winX%8, winY%8)
		row[x] = paletteLookup(bgp, pixel)
	}
}

// spriteEntry mirrors one 4-byte OAM record.
type spriteEntry struct {
	y, x, tile, attr byte
}

func (c *Chip) renderSpriteRow(row []byte, lcdc byte) {
	height := 8
	if lcdc&0x04 != 0 {
		height = 16
	}

	var visible []spriteEntry
	for i := uint16(0); i < 40 && len(visible) < 10; i++ {
		base := 0xFE00 + i*4
		sy := int(c.bus.Read8(base)) - 16
		if c.line < sy || c.line >= sy+height {
			continue
		}
		visible = append(visible, spriteEntry{
			y:    c.bus.Read8(base),
			x:    c.bus.Read8(base + 1),
			tile: c.bus.Read8(base + 2),
			attr: c.bus.Read8(base + 3),
		})
	}

	obp0 := c.bus.Read8(regOBP0)
	obp1 := c.bus.Read8(regOBP1)

	for _, s := range visible {
		sx := int(s.x) - 8
		sy := int(s.y) - 16
		line := c.line - sy
		if s.attr&0x40 != 0 {
			line = height - 1 - line
		}
		tile := s.tile
		if height == 16 {
			tile &^= 1
		}

		for px := 0; px < 8; px++ {
			x := sx + px
			if x < 0 || x >= ScreenWidth {
				continue
			}
			col := px
			if s.attr&0x20 != 0 {
				col = 7 - px
			}
			pixel := c.tilePixelUnsigned(tile, col, line%8)
			if pixel == 0 {
				continue // color 0 is transparent for sprites
			}
			if s.attr&0x80 != 0 && row[x] != 0 {
				continue // behind-background priority, bg pixel wasn't color 0
			}
			palette := obp0
			if s.attr&0x10 != 0 {
				palette = obp1
			}
			row[x] = paletteLookup(palette, pixel)
		}
	}
}

// tilePixel resolves a background/window tile index respecting LCDC bit 4's
// signed/unsigned addressing mode switch.
func (c *Chip) tilePixel(tileIdx byte, lcdc byte, col, row byte) byte {
	var base uint16
	if lcdc&0x10 != 0 {
		base = 0x8000 + uint16(tileIdx)*16
	} else {
		base = uint16(0x9000 + int16(int8(tileIdx))*16)
	}
	return c.readTileRowPixel(base, col, row)
}

func (c *Chip) tilePixelUnsigned(tileIdx byte, col, row int) byte {
	base := 0x8000 + uint16(tileIdx)*16
	return c.readTileRowPixel(base, byte(col), byte(row))
}

func (c *Chip) readTileRowPixel(base uint16, col, row byte) byte {
	lo := c.bus.Read8(base + uint16(row)*2)
	hi := c.bus.Read8(base + uint16(row)*2 + 1)
	bit := 7 - col
	low := (lo >> bit) & 1
	high := (hi >> bit) & 1
	return high<<1 | low
}

func paletteLookup(palette, colorIdx byte) byte {
	return (palette >> (colorIdx * 2)) & 0x3
}

func (c *Chip) plot(x, y int, colorIdx byte) {
	shade := dmgShades[colorIdx]
	i := (y*ScreenWidth + x) * 4
	copy(c.frame[i:i+4], shade[:])
}
