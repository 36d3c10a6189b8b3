// Package shader compiles Kage sources into ebiten shaders after expanding
// library includes.
package shader

import (
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"shaderedit/internal/library"
)

// Artifact is a compiled shader and the file it was built from.
type Artifact struct {
	Path   string
	Source []byte
	Shader *ebiten.Shader
	// Uniforms holds the size in 32-bit words of every declared uniform.
	Uniforms map[string]int
}

// Release frees the GPU side of the shader. The artifact must not be drawn afterwards.
func (a *Artifact) Release() {
	if a != nil && a.Shader != nil {
		a.Shader.Deallocate()
	}
}

// CompileError reports a shader that could not be read, expanded or compiled.
type CompileError struct {
	Path string
	Err  error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("shader %s: %v", e.Path, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Compiler expands includes from a library registry and compiles the result.
type Compiler struct {
	registry *library.Registry
	compile  func([]byte) (*ebiten.Shader, error)
}

func NewCompiler(registry *library.Registry) *Compiler {
	return &Compiler{registry: registry, compile: ebiten.NewShader}
}

// Compile builds the shader at path against the registry's current content.
func (c *Compiler) Compile(path string) (*Artifact, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &CompileError{Path: path, Err: err}
	}

	expanded, err := c.registry.Expand(string(raw))
	if err != nil {
		return nil, &CompileError{Path: path, Err: fmt.Errorf("failed to expand includes: %w", err)}
	}

	src := []byte(expanded)
	sh, err := c.compile(src)
	if err != nil {
		return nil, &CompileError{Path: path, Err: err}
	}
	uniforms, err := uniformsOf(path, src)
	if err != nil {
		if sh != nil {
			sh.Deallocate()
		}
		return nil, err
	}
	return &Artifact{Path: path, Source: src, Shader: sh, Uniforms: uniforms}, nil
}
