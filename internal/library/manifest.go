// Package library manages the shader library: the manifest listing the
// library fragments, and the registry the shader compiler expands
// #include directives from.
package library

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"shaderedit/internal/assets"
)

const (
	// Dir is the library subdirectory of the assets root.
	Dir = "shader_library"
	// ManifestName is the manifest file inside Dir.
	ManifestName = "_list.json"
)

// Entry is one library fragment: the name shaders include it by, and where it lives.
type Entry struct {
	Name string
	Path string
}

// ManifestError reports a manifest that could not be read or is not an array of strings.
type ManifestError struct {
	Path string
	Err  error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("library manifest %s: %v", e.Path, e.Err)
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}

// ManifestPath returns the well-known manifest location under root.
func ManifestPath(root assets.Root) string {
	return root.Join(Dir, ManifestName)
}

// LoadManifest reads the ordered list of fragment paths, relative to the library directory.
func LoadManifest(root assets.Root) ([]string, error) {
	path := ManifestPath(root)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ManifestError{Path: path, Err: err}
	}

	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &ManifestError{Path: path, Err: fmt.Errorf("failed to parse manifest: %w", err)}
	}
	return entries, nil
}

// Resolve turns manifest entries into library entries. The entry string is
// kept verbatim as the logical name.
func Resolve(root assets.Root, entries []string) ([]Entry, error) {
	seen := make(map[string]struct{}, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, name := range entries {
		if name == "" {
			return nil, fmt.Errorf("library entry must not be empty")
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate library entry %q", name)
		}
		seen[name] = struct{}{}
		out = append(out, Entry{
			Name: name,
			Path: root.Join(Dir, filepath.FromSlash(name)),
		})
	}
	return out, nil
}
