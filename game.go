package main

import (
	"io"

	"github.com/hajimehoshi/ebiten/v2"

	"shaderedit/internal/gamemode"
)

// Game routes ebiten's callbacks to the current state.
type Game struct {
	State gamemode.State
	Tick  int
}

func NewGame(initial gamemode.State) *Game {
	return &Game{State: initial}
}

// Update: Logic (fixed TPS)
func (g *Game) Update() error {
	g.Tick++

	delta := 1 / float64(ebiten.TPS())
	g.State.Update(delta)

	if next := g.State.Transition(); next != nil {
		g.closeState()
		g.State = next
	}
	return nil
}

// Draw: Rendering (VSync)
func (g *Game) Draw(screen *ebiten.Image) {
	g.State.Draw(screen)
}

// Layout: shaders render at the window's own resolution.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// Close releases whatever the current state holds, such as a file watcher.
func (g *Game) Close() error {
	return g.closeState()
}

func (g *Game) closeState() error {
	if c, ok := g.State.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
