package agb

import (
	"log/slog"
	"os"

	"github.com/valerio/go-agb/agb/cpu"
	"github.com/valerio/go-agb/agb/irq"
	"github.com/valerio/go-agb/agb/memory"
	"github.com/valerio/go-agb/agb/video"
)

// Emulator is the root struct and entry point for running the
// emulation. It owns every component and drives them cooperatively
// from RunFor.
type Emulator struct {
	cpu *cpu.CPU
	ppu *video.PPU
	bus *memory.Bus
	irq *irq.IRQ

	frameCount uint64
}

// New creates an emulator around a loaded cartridge. A nil bios runs
// the core in HLE mode with the stub BIOS image installed.
func New(cart *memory.Cartridge, bios []byte) (*Emulator, error) {
	ic := irq.New()
	ppu := video.NewPPU(ic)

	bus, err := memory.NewBus(cart, bios, ppu, ic)
	if err != nil {
		return nil, err
	}

	e := &Emulator{
		cpu: cpu.New(bus, bios == nil),
		ppu: ppu,
		bus: bus,
		irq: ic,
	}
	return e, nil
}

// NewWithFile loads the ROM at the given path. An empty biosPath runs
// in HLE mode.
func NewWithFile(path, biosPath string) (*Emulator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cart, err := memory.NewCartridgeWithData(data)
	if err != nil {
		return nil, err
	}

	var bios []byte
	if biosPath != "" {
		bios, err = os.ReadFile(biosPath)
		if err != nil {
			return nil, err
		}
		slog.Info("Loaded BIOS image", "size", len(bios))
	}

	return New(cart, bios)
}

// Reset restores the boot state with the BIOS intro skipped: the core
// starts at the gamepak entry point whether or not a BIOS image is
// loaded.
func (e *Emulator) Reset() {
	e.cpu.Reset(true)
}

// RunFor executes the core for at least the given number of CPU
// cycles. One outer iteration services DMA if a channel is triggered,
// otherwise steps the CPU (or burns a tick while halted), then brings
// the PPU and timers up to date.
func (e *Emulator) RunFor(cycles int) {
	for cycles > 0 {
		if e.irq.Halt != irq.Run && e.irq.Pending() {
			e.irq.Halt = irq.Run
		}

		if e.bus.DMAReady() {
			consumed := e.bus.RunDMA()
			e.tickDevices(consumed)
			cycles -= consumed
			continue
		}

		if e.irq.Halt != irq.Run {
			e.tickDevices(1)
			cycles--
			continue
		}

		if e.irq.MasterEnabled() && e.irq.Pending() {
			e.cpu.FireIRQ()
		}

		consumed := e.cpu.Step()
		e.tickDevices(consumed)
		cycles -= consumed
	}
}

func (e *Emulator) tickDevices(cycles int) {
	for i := 0; i < cycles; i++ {
		e.ppu.Step()
	}
	e.bus.RunTimers(cycles)
}

// RunUntilFrame runs the core until the PPU completes the current
// frame.
func (e *Emulator) RunUntilFrame() {
	for !e.ppu.FrameReady {
		e.RunFor(vblankPeriod)
	}
	e.ppu.FrameReady = false
	e.frameCount++
}

// vblankPeriod is one scanline worth of cycles, a convenient quantum
// for the frame loop.
const vblankPeriod = 1232

// CurrentFrame returns the PPU front buffer.
func (e *Emulator) CurrentFrame() *video.FrameBuffer {
	return e.ppu.FrameBuffer()
}

// FrameCount returns the number of completed frames.
func (e *Emulator) FrameCount() uint64 {
	return e.frameCount
}

// PressKey and ReleaseKey feed pad input into KEYINPUT.
func (e *Emulator) PressKey(key memory.Key) {
	e.bus.PressKey(key)
}

func (e *Emulator) ReleaseKey(key memory.Key) {
	e.bus.ReleaseKey(key)
}

// CPU, Bus and PPU expose the components for tests and debug surfaces.
func (e *Emulator) CPU() *cpu.CPU {
	return e.cpu
}

func (e *Emulator) Bus() *memory.Bus {
	return e.bus
}

func (e *Emulator) PPU() *video.PPU {
	return e.ppu
}

func (e *Emulator) IRQ() *irq.IRQ {
	return e.irq
}
