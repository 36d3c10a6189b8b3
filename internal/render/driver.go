// Package render draws the active shader artifact each frame.
package render

import (
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"

	"shaderedit/internal/config"
	"shaderedit/internal/shader"
)

// Frame is everything the driver needs to draw one frame. The artifact is
// borrowed for the duration of Draw only.
type Frame struct {
	Artifact *shader.Artifact
	Config   *config.Config
	Elapsed  float64
}

// Driver draws frames onto a screen image. It never touches the artifact
// outside Draw.
type Driver struct {
	Background color.Color

	logger *slog.Logger
	// problems already logged for the current artifact and config
	seen     frameKey
	reported map[string]bool
}

type frameKey struct {
	artifact *shader.Artifact
	config   *config.Config
}

func NewDriver(logger *slog.Logger) *Driver {
	return &Driver{Background: color.Black, logger: logger}
}

// Uniforms builds the uniform set for a frame. Config parameters are applied
// last and may shadow the built-in names.
func Uniforms(f Frame, cam Camera, w, h int) map[string]any {
	t := float32(f.Elapsed)
	_, frac := math.Modf(f.Elapsed)
	u := map[string]any{
		"Time":         t,
		"UnitPosition": []float32{0, 0},
		"UnitRadius":   float32(1),
		"WindowSize":   []float32{float32(w), float32(h)},
		"Spawn":        float32(1 - frac),
		"Fov":          cam.Fov,
		"CameraCenter": []float32{cam.Center.X, cam.Center.Y},
	}
	if f.Config != nil {
		for name, value := range f.Config.Parameters {
			u[name] = value
		}
	}
	return u
}

// Draw clears the screen and, if there is an artifact, draws the configured
// geometry with it.
func (d *Driver) Draw(screen *ebiten.Image, f Frame) {
	screen.Fill(d.Background)
	if f.Artifact == nil || f.Artifact.Shader == nil || f.Config == nil {
		return
	}

	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	cam := Camera{Fov: f.Config.Fov}

	u := Uniforms(f, cam, w, h)
	if bad := Conform(u, f.Artifact.Uniforms); len(bad) > 0 {
		d.reportOnce(f, "Uniform values do not fit the shader, drawing them as zero.",
			"path", f.Artifact.Path, "uniforms", bad)
	}

	opts := &ebiten.DrawTrianglesShaderOptions{Uniforms: u}
	batches := Mesh(Strip(f.Config.Vertices), f.Config.Instances, cam, w, h)
	if err := drawBatches(screen, batches, f.Artifact.Shader, opts); err != nil {
		screen.Fill(d.Background)
		d.reportOnce(f, "Failed to draw shader.", "path", f.Artifact.Path, "err", err)
	}
}

// Conform drops every value whose size differs from the uniform the shader
// declares under that name, and returns the dropped names in order. Missing
// uniforms are zero when drawn. Names the shader does not declare are kept.
func Conform(u map[string]any, declared map[string]int) []string {
	var bad []string
	for name, value := range u {
		want, ok := declared[name]
		if !ok {
			continue
		}
		if valueDwords(value) != want {
			delete(u, name)
			bad = append(bad, name)
		}
	}
	sort.Strings(bad)
	return bad
}

func valueDwords(v any) int {
	switch v := v.(type) {
	case float32, float64, int, int32, bool:
		return 1
	case []float32:
		return len(v)
	case []int32:
		return len(v)
	default:
		return -1
	}
}

// drawBatches turns a panic from ebiten's uniform packing into an error so a
// bad reload cannot take the window down.
func drawBatches(screen *ebiten.Image, batches []Batch, sh *ebiten.Shader, opts *ebiten.DrawTrianglesShaderOptions) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("draw: %v", r)
		}
	}()
	for _, b := range batches {
		screen.DrawTrianglesShader(b.Vertices, b.Indices, sh, opts)
	}
	return nil
}

func (d *Driver) reportOnce(f Frame, msg string, args ...any) {
	key := frameKey{artifact: f.Artifact, config: f.Config}
	if d.seen != key || d.reported == nil {
		d.seen = key
		d.reported = make(map[string]bool)
	}
	if d.reported[msg] {
		return
	}
	d.reported[msg] = true
	d.logger.Error(msg, args...)
}
