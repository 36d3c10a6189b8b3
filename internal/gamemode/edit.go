package gamemode

import (
	"fmt"
	"io"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"shaderedit/internal/reload"
	"shaderedit/internal/render"
)

// ShaderEdit shows the live shader and keeps it in sync with the files on disk.
type ShaderEdit struct {
	controller *reload.Controller
	driver     *render.Driver
	watcher    io.Closer

	ShowStatus bool
}

// NewShaderEdit takes ownership of w and closes it in Close.
func NewShaderEdit(controller *reload.Controller, driver *render.Driver, w io.Closer) *ShaderEdit {
	return &ShaderEdit{
		controller: controller,
		driver:     driver,
		watcher:    w,
		ShowStatus: true,
	}
}

func (s *ShaderEdit) Update(delta float64) {
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		s.ShowStatus = !s.ShowStatus
	}
	s.controller.Update(delta)
}

func (s *ShaderEdit) Draw(screen *ebiten.Image) {
	s.driver.Draw(screen, render.Frame{
		Artifact: s.controller.Current(),
		Config:   s.controller.Config(),
		Elapsed:  s.controller.Elapsed(),
	})

	if s.ShowStatus {
		ebitenutil.DebugPrint(screen, s.Status())
	}
}

// Status is the overlay text: whether live reload is still running (idle or
// degraded), the active shader and the clock.
func (s *ShaderEdit) Status() string {
	path := "(none)"
	if art := s.controller.Current(); art != nil {
		path = art.Path
	}
	return fmt.Sprintf("%s\n%s\nt=%.2f (F1 hides)", s.controller.State(), path, s.controller.Elapsed())
}

func (s *ShaderEdit) Transition() State {
	return nil
}

// Close stops the file watcher. The controller then stays on its last shader.
func (s *ShaderEdit) Close() error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Close()
}
