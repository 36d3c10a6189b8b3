package assets

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultRoot is the assets directory used when none is given on the command line.
const DefaultRoot = "static"

// Root is the directory every config, shader and library path is resolved against.
type Root struct {
	dir string
}

// NewRoot makes dir absolute so that paths resolved from it compare equal to
// the paths fsnotify reports back.
func NewRoot(dir string) (Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Root{}, fmt.Errorf("resolve assets root %q: %w", dir, err)
	}
	return Root{dir: abs}, nil
}

// Dir returns the absolute assets directory.
func (r Root) Dir() string {
	return r.dir
}

// Resolve joins a relative path onto the root. Absolute paths are only cleaned.
func (r Root) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(r.dir, path)
}

// Join resolves path relative to a subdirectory of the root.
func (r Root) Join(sub, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(r.dir, sub, path)
}

// LoadText reads a whole text asset.
func LoadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read asset %q: %w", path, err)
	}
	return string(data), nil
}
