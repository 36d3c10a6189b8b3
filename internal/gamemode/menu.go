package gamemode

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

var (
	ColMenu = color.RGBA{0xff, 0x00, 0xff, 0xff} // Magenta
	ColGame = color.RGBA{0x00, 0x00, 0xff, 0xff} // Blue
)

// MainMenu waits for any key and then switches to the game.
type MainMenu struct {
	pressed bool
	keys    []ebiten.Key
}

func NewMainMenu() *MainMenu {
	return &MainMenu{}
}

func (m *MainMenu) Update(delta float64) {
	m.keys = inpututil.AppendJustPressedKeys(m.keys[:0])
	if len(m.keys) > 0 {
		m.pressed = true
	}
}

func (m *MainMenu) Draw(screen *ebiten.Image) {
	screen.Fill(ColMenu)
	ebitenutil.DebugPrintAt(screen, "PRESS ANY KEY", 8, 8)
}

func (m *MainMenu) Transition() State {
	if m.pressed {
		return NewPlay()
	}
	return nil
}

// Play is the in-game screen. It has no logic yet.
type Play struct{}

func NewPlay() *Play {
	return &Play{}
}

func (p *Play) Update(delta float64) {}

func (p *Play) Draw(screen *ebiten.Image) {
	screen.Fill(ColGame)
}

func (p *Play) Transition() State {
	return nil
}
