package memory

import (
	"bytes"
	"fmt"
	"log/slog"
)

const (
	titleAddress    = 0xA0
	titleLength     = 12
	gameCodeAddress = 0xAC
	gameCodeLength  = 4
	maxROMSize      = 32 * 1024 * 1024
)

// Cartridge holds the ROM image and the backup chip detected from it.
type Cartridge struct {
	data     []byte
	title    string
	gameCode string
	saveType SaveType
	backup   Backup
}

// NewCartridge creates an empty cartridge, useful only for debugging
// purposes.
func NewCartridge() *Cartridge {
	return &Cartridge{saveType: SaveNone}
}

// NewCartridgeWithData wraps a ROM image, reads its header and attaches
// the backup chip advertised by the save-library ID string found in the
// image. Carts without a recognizable ID default to SRAM.
func NewCartridgeWithData(data []byte) (*Cartridge, error) {
	if len(data) > maxROMSize {
		return nil, fmt.Errorf("ROM too large: %d bytes (max %d)", len(data), maxROMSize)
	}

	cart := &Cartridge{data: data}
	if len(data) >= gameCodeAddress+gameCodeLength {
		cart.title = string(bytes.TrimRight(data[titleAddress:titleAddress+titleLength], "\x00"))
		cart.gameCode = string(data[gameCodeAddress : gameCodeAddress+gameCodeLength])
	}

	cart.saveType = detectSaveType(data)
	switch cart.saveType {
	case SaveSRAM:
		cart.backup = NewSRAM()
	case SaveFlash64:
		cart.backup = NewFlash(false)
	case SaveFlash128:
		cart.backup = NewFlash(true)
	case SaveEEPROM:
		slog.Warn("EEPROM save type detected but unsupported")
	case SaveNone:
		cart.saveType = SaveSRAM
		cart.backup = NewSRAM()
		slog.Info("Save type not determinable, defaulting to SRAM")
	}

	slog.Info("Loaded ROM",
		"title", cart.title,
		"code", cart.gameCode,
		"size", len(data),
		"save", cart.saveType.String())

	return cart, nil
}

// detectSaveType scans the ROM for the save-library ID strings the
// official SDK embeds on a word boundary.
func detectSaveType(data []byte) SaveType {
	for i := 0; i+10 <= len(data); i += 4 {
		switch {
		case bytes.HasPrefix(data[i:], []byte("EEPROM_V")):
			return SaveEEPROM
		case bytes.HasPrefix(data[i:], []byte("SRAM_V")):
			return SaveSRAM
		case bytes.HasPrefix(data[i:], []byte("FLASH_V")),
			bytes.HasPrefix(data[i:], []byte("FLASH512_V")):
			return SaveFlash64
		case bytes.HasPrefix(data[i:], []byte("FLASH1M_V")):
			return SaveFlash128
		}
	}
	return SaveNone
}

func (c *Cartridge) Title() string {
	return c.title
}

func (c *Cartridge) SaveType() SaveType {
	return c.saveType
}

// Read returns the ROM byte at the given offset, or 0 past the end of
// the image.
func (c *Cartridge) Read(offset uint32) byte {
	if offset >= uint32(len(c.data)) {
		return 0
	}
	return c.data[offset]
}
