package shader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shaderedit/internal/library"
)

// newTestCompiler records the expanded source instead of building a GPU shader.
func newTestCompiler(reg *library.Registry, fail error) (*Compiler, *[]byte) {
	var got []byte
	c := NewCompiler(reg)
	c.compile = func(src []byte) (*ebiten.Shader, error) {
		got = src
		return nil, fail
	}
	return c, &got
}

func TestCompileExpandsLibrary(t *testing.T) {
	reg := library.NewRegistry()
	reg.Add("noise.kage", "func noise() float { return 0 }")

	path := filepath.Join(t.TempDir(), "wave.kage")
	require.NoError(t, os.WriteFile(path, []byte("package main\n//#include <noise.kage>\n"), 0o644))

	c, got := newTestCompiler(reg, nil)
	art, err := c.Compile(path)
	require.NoError(t, err)

	want := "package main\nfunc noise() float { return 0 }\n"
	assert.Equal(t, path, art.Path)
	assert.Equal(t, want, string(art.Source))
	assert.Equal(t, want, string(*got))
}

func TestCompileErrors(t *testing.T) {
	dir := t.TempDir()
	reg := library.NewRegistry()

	c, _ := newTestCompiler(reg, nil)
	_, err := c.Compile(filepath.Join(dir, "missing.kage"))
	var compileErr *CompileError
	require.True(t, errors.As(err, &compileErr))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	path := filepath.Join(dir, "bad_include.kage")
	require.NoError(t, os.WriteFile(path, []byte("#include <nope>\n"), 0o644))
	_, err = c.Compile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to expand includes")

	boom := errors.New("syntax error")
	failing, _ := newTestCompiler(reg, boom)
	path = filepath.Join(dir, "bad.kage")
	require.NoError(t, os.WriteFile(path, []byte("package main\n"), 0o644))
	_, err = failing.Compile(path)
	require.ErrorIs(t, err, boom)
	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, path, compileErr.Path)
}

func TestReleaseNil(t *testing.T) {
	var a *Artifact
	assert.NotPanics(t, a.Release)
	assert.NotPanics(t, (&Artifact{}).Release)
}

func TestDeclaredUniforms(t *testing.T) {
	src := []byte(`//kage:unit pixels

package main

var Time float
var WindowSize, CameraCenter vec2
var (
	Tint    vec4
	Weights [3]vec2
	Bones   [N]mat4
)

const N = 2

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	return Tint
}
`)
	got, err := DeclaredUniforms(src)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		"Time":         1,
		"WindowSize":   2,
		"CameraCenter": 2,
		"Tint":         4,
		"Weights":      6,
	}, got)

	_, err = DeclaredUniforms([]byte("package main\nvar (\n"))
	assert.Error(t, err)
}

func TestCompileRecordsUniforms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tint.kage")
	require.NoError(t, os.WriteFile(path, []byte("package main\n\nvar Tint vec4\nvar Speed vec2\n"), 0o644))

	c, _ := newTestCompiler(library.NewRegistry(), nil)
	art, err := c.Compile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Tint": 4, "Speed": 2}, art.Uniforms)
}
