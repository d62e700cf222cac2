package render

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/valerio/go-agb/agb"
	"github.com/valerio/go-agb/agb/memory"
	"github.com/valerio/go-agb/agb/video"
)

const frameTime = time.Second / 60

// TerminalRenderer draws the front buffer into a terminal through
// tcell, two pixels per character cell using the half-block glyph.
type TerminalRenderer struct {
	screen   tcell.Screen
	emulator *agb.Emulator
	running  bool
}

func NewTerminalRenderer(emu *agb.Emulator) (*TerminalRenderer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize terminal: %v", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize terminal: %v", err)
	}

	return &TerminalRenderer{
		screen:   screen,
		emulator: emu,
		running:  true,
	}, nil
}

func (t *TerminalRenderer) Run() error {
	defer func() {
		slog.Info("Finishing terminal")
		t.screen.Fini()
	}()

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	go t.handleInput()

	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	for t.running {
		select {
		case <-ticker.C:
			t.emulator.RunUntilFrame()
			t.render()
			t.screen.Show()
		case <-signals:
			t.running = false
			slog.Info("Received signal to stop")
			return nil
		}
	}

	return nil
}

func (t *TerminalRenderer) handleInput() {
	keymap := map[rune]memory.Key{
		'z': memory.KeyA,
		'x': memory.KeyB,
		'a': memory.KeyL,
		's': memory.KeyR,
		'q': memory.KeySelect,
	}

	for t.running {
		ev := t.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyEscape, tcell.KeyCtrlC:
				t.running = false
			case tcell.KeyEnter:
				t.tap(memory.KeyStart)
			case tcell.KeyRight:
				t.tap(memory.KeyRight)
			case tcell.KeyLeft:
				t.tap(memory.KeyLeft)
			case tcell.KeyUp:
				t.tap(memory.KeyUp)
			case tcell.KeyDown:
				t.tap(memory.KeyDown)
			case tcell.KeyRune:
				if key, ok := keymap[ev.Rune()]; ok {
					t.tap(key)
				}
			}
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}

// tap presses a key and schedules its release a few frames later.
// Terminals only deliver key-down events, so a held key cannot be
// tracked exactly.
func (t *TerminalRenderer) tap(key memory.Key) {
	t.emulator.PressKey(key)
	time.AfterFunc(100*time.Millisecond, func() {
		t.emulator.ReleaseKey(key)
	})
}

func (t *TerminalRenderer) render() {
	frame := t.emulator.CurrentFrame().ToSlice()

	for y := 0; y < video.ScreenHeight; y += 2 {
		for x := 0; x < video.ScreenWidth; x++ {
			top := frame[y*video.ScreenWidth+x]
			bottom := frame[(y+1)*video.ScreenWidth+x]
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(channels(top))).
				Background(tcell.NewRGBColor(channels(bottom)))
			t.screen.SetContent(x, y/2, '▀', nil, style)
		}
	}
}

func channels(pixel uint32) (int32, int32, int32) {
	return int32(pixel >> 16 & 0xFF), int32(pixel >> 8 & 0xFF), int32(pixel & 0xFF)
}
