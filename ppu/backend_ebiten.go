//go:build !headless

package ppu

import (
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.design/x/clipboard"
)

// EbitenBackend presents a Chip's framebuffer in a scaled window, and wires
// a single debug hotkey (F9) to copy the last frame's register dump to the
// clipboard for pasting into a bug report.
type EbitenBackend struct {
	chip  *Chip
	scale int

	mu     sync.RWMutex
	image  *ebiten.Image
	paused bool

	clipboardOnce sync.Once
	clipboardOK   bool
	copyText      func() string
	onFrame       func()
}

// SetFrameCallback installs the function called once per Update tick
// (normally Engine.ExecuteFrame) before the framebuffer is drawn.
func (b *EbitenBackend) SetFrameCallback(f func()) { b.onFrame = f }

// NewEbitenBackend wires chip into an ebiten window at the given integer
// scale factor (160x144 is tiny at 1x on modern displays).
func NewEbitenBackend(chip *Chip, scale int) *EbitenBackend {
	if scale < 1 {
		scale = 1
	}
	b := &EbitenBackend{chip: chip, scale: scale}
	b.image = ebiten.NewImage(ScreenWidth, ScreenHeight)
	ebiten.SetWindowSize(ScreenWidth*scale, ScreenHeight*scale)
	ebiten.SetWindowTitle("dmgjit")
	return b
}

// SetCopyText installs the callback EbitenBackend calls when the user
// presses the clipboard hotkey; cmd/dmgjit wires the debugger's register
// dump in here.
func (b *EbitenBackend) SetCopyText(f func() string) { b.copyText = f }

func (b *EbitenBackend) Update() error {
	b.clipboardOnce.Do(func() {
		b.clipboardOK = clipboard.Init() == nil
	})
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) && b.clipboardOK && b.copyText != nil {
		clipboard.Write(clipboard.FmtText, []byte(b.copyText()))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		b.mu.Lock()
		b.paused = !b.paused
		b.mu.Unlock()
	}
	if !b.Paused() && b.onFrame != nil {
		b.onFrame()
	}
	return nil
}

func (b *EbitenBackend) Draw(screen *ebiten.Image) {
	b.image.WritePixels(b.chip.Framebuffer())
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(b.scale), float64(b.scale))
	screen.DrawImage(b.image, op)
	if b.Paused() {
		ebitenutil.DebugPrint(screen, "paused")
	}
}

func (b *EbitenBackend) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ScreenWidth * b.scale, ScreenHeight * b.scale
}

func (b *EbitenBackend) Paused() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.paused
}

// Run blocks until the window is closed.
func (b *EbitenBackend) Run() error {
	if err := ebiten.RunGame(b); err != nil {
		return fmt.Errorf("ppu: ebiten backend: %w", err)
	}
	return nil
}
