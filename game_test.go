package main

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shaderedit/internal/gamemode"
)

type recordingState struct {
	deltas []float64
	next   gamemode.State
	closed int
}

func (s *recordingState) Update(delta float64) { s.deltas = append(s.deltas, delta) }
func (s *recordingState) Draw(screen *ebiten.Image) {}
func (s *recordingState) Transition() gamemode.State { return s.next }

func (s *recordingState) Close() error {
	s.closed++
	return nil
}

func TestGameUpdateAndTransition(t *testing.T) {
	second := &recordingState{}
	first := &recordingState{next: second}
	game := NewGame(first)

	require.NoError(t, game.Update())
	assert.Len(t, first.deltas, 1)
	assert.InDelta(t, 1/float64(ebiten.TPS()), first.deltas[0], 1e-12)
	assert.Equal(t, 1, first.closed, "leaving a state closes it")
	assert.Same(t, second, game.State)

	require.NoError(t, game.Update())
	assert.Len(t, second.deltas, 1)

	require.NoError(t, game.Close())
	assert.Equal(t, 1, second.closed)
	assert.Equal(t, 2, game.Tick)
}

func TestGameLayoutFollowsWindow(t *testing.T) {
	game := NewGame(&recordingState{})
	w, h := game.Layout(1280, 720)
	assert.Equal(t, 1280, w)
	assert.Equal(t, 720, h)
}
