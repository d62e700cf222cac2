package memory

// stubBIOS is the 64-byte replacement image installed when no BIOS file
// is supplied: a branch over the unused vectors, a SWI dispatcher that
// is never reached under HLE, and the return-from-IRQ stub games jump
// through at 0x18.
var stubBIOS = [0x40]byte{
	0x06, 0x00, 0x00, 0xEA, 0x00, 0x00, 0xA0, 0xE1,
	0x00, 0x00, 0xA0, 0xE1, 0x00, 0x00, 0xA0, 0xE1,
	0x00, 0x00, 0xA0, 0xE1, 0x00, 0x00, 0xA0, 0xE1,
	0x01, 0x00, 0x00, 0xEA, 0x00, 0x00, 0xA0, 0xE1,
	0x02, 0xF3, 0xA0, 0xE3, 0x0F, 0x50, 0x2D, 0xE9,
	0x01, 0x03, 0xA0, 0xE3, 0x00, 0xE0, 0x8F, 0xE2,
	0x04, 0xF0, 0x10, 0xE5, 0x0F, 0x50, 0xBD, 0xE8,
	0x04, 0xF0, 0x5E, 0xE2, 0x00, 0x00, 0xA0, 0xE1,
}
