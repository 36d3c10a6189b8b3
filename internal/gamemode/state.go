// Package gamemode holds the states the window can be in: the main menu and
// game stubs, and the live shader editor.
package gamemode

import "github.com/hajimehoshi/ebiten/v2"

// State is one screen of the program. Update runs once per tick with the
// tick length in seconds; Draw may run more or less often.
type State interface {
	Update(delta float64)
	Draw(screen *ebiten.Image)
	// Transition returns the state to switch to, or nil to stay.
	Transition() State
}
