package memory

// Key is one of the ten pad inputs, numbered by its KEYINPUT bit.
type Key uint

const (
	KeyA Key = iota
	KeyB
	KeySelect
	KeyStart
	KeyRight
	KeyLeft
	KeyUp
	KeyDown
	KeyR
	KeyL
)

// PressKey clears the key's bit in KEYINPUT. The register is
// active-low: 1 means released.
func (b *Bus) PressKey(key Key) {
	b.KeyInput &= ^(uint16(1) << key)
}

// ReleaseKey sets the key's bit in KEYINPUT.
func (b *Bus) ReleaseKey(key Key) {
	b.KeyInput |= uint16(1) << key
}
