package addr

// I/O register offsets, relative to the I/O base 0x04000000.
// Registers are byte-addressable; 16-bit registers occupy two
// consecutive offsets, 32-bit registers four.

// display registers
const (
	// DISPCNT is the display control register.
	DISPCNT uint32 = 0x000
	// DISPSTAT holds the blanking flags and IRQ enables.
	DISPSTAT uint32 = 0x004
	// VCOUNT is the read-only current scanline.
	VCOUNT uint32 = 0x006
	// BG0CNT..BG3CNT are the background control registers (stride 2).
	BG0CNT uint32 = 0x008
	BG1CNT uint32 = 0x00A
	BG2CNT uint32 = 0x00C
	BG3CNT uint32 = 0x00E
	// BG0HOFS/BG0VOFS are the scroll registers, stride 4 per background.
	BG0HOFS uint32 = 0x010
	BG0VOFS uint32 = 0x012
	// BG2PA..BG2PD hold the 8.8 affine matrix for BG2, BG2X/BG2Y the
	// 20.8 reference point. BG3 mirrors the layout at +0x10.
	BG2PA uint32 = 0x020
	BG2PB uint32 = 0x022
	BG2PC uint32 = 0x024
	BG2PD uint32 = 0x026
	BG2X  uint32 = 0x028
	BG2Y  uint32 = 0x02C
	BG3PA uint32 = 0x030
	BG3PB uint32 = 0x032
	BG3PC uint32 = 0x034
	BG3PD uint32 = 0x036
	BG3X  uint32 = 0x038
	BG3Y  uint32 = 0x03C
	// WIN0H/WIN1H hold right/left window bounds, WIN0V/WIN1V bottom/top.
	WIN0H  uint32 = 0x040
	WIN1H  uint32 = 0x042
	WIN0V  uint32 = 0x044
	WIN1V  uint32 = 0x046
	WININ  uint32 = 0x048
	WINOUT uint32 = 0x04A
)

// DMA registers. Each channel spans 12 bytes: 32-bit source, 32-bit
// destination, 16-bit count, 16-bit control.
const (
	DMA0SAD   uint32 = 0x0B0
	DMA0DAD   uint32 = 0x0B4
	DMA0CNTL  uint32 = 0x0B8
	DMA0CNTH  uint32 = 0x0BA
	DMAStride uint32 = 0x00C
)

// timer registers. Each timer spans 4 bytes: 16-bit reload (count on
// read), 16-bit control.
const (
	TM0CNTL  uint32 = 0x100
	TM0CNTH  uint32 = 0x102
	TMStride uint32 = 0x004
)

// input, interrupt and system control
const (
	// KEYINPUT is the active-low 10-bit key state.
	KEYINPUT uint32 = 0x130
	// IE is the interrupt enable mask.
	IE uint32 = 0x200
	// IF is the interrupt request register. Writing 1 to a bit clears it.
	IF uint32 = 0x202
	// WAITCNT configures the gamepak and SRAM waitstates.
	WAITCNT uint32 = 0x204
	// IME is the master interrupt enable (bit 0).
	IME uint32 = 0x208
	// HALTCNT halts (0) or stops (0x80) the CPU until an interrupt.
	HALTCNT uint32 = 0x301
)

// Interrupt identifies one of the IF/IE register bits.
type Interrupt uint16

const (
	// VBlankInterrupt fires on entry into the vertical blanking period.
	VBlankInterrupt Interrupt = 1 << 0
	// HBlankInterrupt fires on entry into the horizontal blanking period.
	HBlankInterrupt Interrupt = 1 << 1
	// VCountInterrupt fires when VCOUNT matches the DISPSTAT setting.
	VCountInterrupt Interrupt = 1 << 2
	// Timer0Interrupt..Timer3Interrupt fire on timer overflow.
	Timer0Interrupt Interrupt = 1 << 3
	Timer1Interrupt Interrupt = 1 << 4
	Timer2Interrupt Interrupt = 1 << 5
	Timer3Interrupt Interrupt = 1 << 6
	// SerialInterrupt fires on serial transfer completion (unused here).
	SerialInterrupt Interrupt = 1 << 7
	// DMA0Interrupt..DMA3Interrupt fire on DMA completion.
	DMA0Interrupt Interrupt = 1 << 8
	DMA1Interrupt Interrupt = 1 << 9
	DMA2Interrupt Interrupt = 1 << 10
	DMA3Interrupt Interrupt = 1 << 11
	// KeypadInterrupt and GamepakInterrupt are defined for completeness.
	KeypadInterrupt  Interrupt = 1 << 12
	GamepakInterrupt Interrupt = 1 << 13
)
