package library

import (
	"fmt"
	"log/slog"

	"shaderedit/internal/assets"
)

// FragmentError reports a library fragment that could not be read.
type FragmentError struct {
	Name string
	Path string
	Err  error
}

func (e *FragmentError) Error() string {
	return fmt.Sprintf("library fragment %q (%s): %v", e.Name, e.Path, e.Err)
}

func (e *FragmentError) Unwrap() error {
	return e.Err
}

// Outcome records what injecting one fragment did.
type Outcome struct {
	Entry   Entry
	Changed bool
}

// Pass is the result of one full library reload. Outcomes holds the fragments
// injected before the pass stopped, so it may be shorter than Entries.
type Pass struct {
	Entries  []Entry
	Outcomes []Outcome
}

// Changed reports whether any injected fragment altered the registry.
func (p Pass) Changed() bool {
	for _, o := range p.Outcomes {
		if o.Changed {
			return true
		}
	}
	return false
}

// Index ties the manifest on disk to the registry.
type Index struct {
	root     assets.Root
	registry *Registry
	logger   *slog.Logger
}

func NewIndex(root assets.Root, registry *Registry, logger *slog.Logger) *Index {
	return &Index{root: root, registry: registry, logger: logger}
}

func (x *Index) Registry() *Registry {
	return x.registry
}

// Entries reads and resolves the manifest.
func (x *Index) Entries() ([]Entry, error) {
	names, err := LoadManifest(x.root)
	if err != nil {
		return nil, err
	}
	entries, err := Resolve(x.root, names)
	if err != nil {
		return nil, &ManifestError{Path: ManifestPath(x.root), Err: err}
	}
	return entries, nil
}

// Inject reads the fragment from disk and registers it under its logical name.
func (x *Index) Inject(entry Entry) (bool, error) {
	source, err := assets.LoadText(entry.Path)
	if err != nil {
		return false, &FragmentError{Name: entry.Name, Path: entry.Path, Err: err}
	}
	changed := x.registry.Add(entry.Name, source)
	x.logger.Debug("Library fragment injected.", "name", entry.Name, "path", entry.Path, "changed", changed)
	return changed, nil
}

// InjectAll injects entries in order and stops at the first failure.
// Fragments injected before the failure stay injected.
func (x *Index) InjectAll(entries []Entry) (Pass, error) {
	pass := Pass{Entries: entries, Outcomes: make([]Outcome, 0, len(entries))}
	for _, entry := range entries {
		changed, err := x.Inject(entry)
		if err != nil {
			return pass, err
		}
		pass.Outcomes = append(pass.Outcomes, Outcome{Entry: entry, Changed: changed})
	}
	return pass, nil
}

// Reload re-reads the manifest and injects every fragment's current content.
func (x *Index) Reload() (Pass, error) {
	entries, err := x.Entries()
	if err != nil {
		return Pass{}, err
	}
	return x.InjectAll(entries)
}
