package library

import (
	"bufio"
	"fmt"
	"sort"
	"strings"
)

// Registry maps logical fragment names to their source. It belongs to the
// update goroutine and is not safe for concurrent use.
type Registry struct {
	sources map[string]string
}

func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]string)}
}

// Add registers or overwrites a fragment and reports whether the stored content changed.
func (r *Registry) Add(name, source string) bool {
	old, ok := r.sources[name]
	if ok && old == source {
		return false
	}
	r.sources[name] = source
	return true
}

// Get returns the source registered under name.
func (r *Registry) Get(name string) (string, bool) {
	source, ok := r.sources[name]
	return source, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot copies the current name to source mapping.
func (r *Registry) Snapshot() map[string]string {
	out := make(map[string]string, len(r.sources))
	for name, source := range r.sources {
		out[name] = source
	}
	return out
}

// Expand replaces every `#include <name>` or `#include "name"` line with the
// registered fragment, recursively. Each fragment is expanded at most once per
// call; a second include of the same name expands to nothing.
func (r *Registry) Expand(source string) (string, error) {
	var b strings.Builder
	err := r.expand(&b, source, map[string]bool{}, map[string]bool{})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

func (r *Registry) expand(b *strings.Builder, source string, active, done map[string]bool) error {
	sc := bufio.NewScanner(strings.NewReader(source))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<24)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		name, ok, err := parseInclude(text)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if !ok {
			b.WriteString(text)
			b.WriteByte('\n')
			continue
		}

		if active[name] {
			return fmt.Errorf("line %d: include cycle through %q", line, name)
		}
		if done[name] {
			continue
		}
		fragment, found := r.sources[name]
		if !found {
			return fmt.Errorf("line %d: unknown library fragment %q", line, name)
		}

		active[name] = true
		if err := r.expand(b, fragment, active, done); err != nil {
			return fmt.Errorf("in %q: %w", name, err)
		}
		delete(active, name)
		done[name] = true
	}
	return sc.Err()
}

// parseInclude recognises an include directive. It may be written as
// `//#include` so that Kage sources stay valid Go syntax for editors.
func parseInclude(line string) (string, bool, error) {
	text := strings.TrimSpace(line)
	text = strings.TrimPrefix(text, "//")
	if !strings.HasPrefix(text, "#include") {
		return "", false, nil
	}
	arg := strings.TrimSpace(strings.TrimPrefix(text, "#include"))
	if len(arg) < 2 {
		return "", false, fmt.Errorf("malformed include %q", line)
	}

	open, closing := arg[0], arg[len(arg)-1]
	if !(open == '<' && closing == '>') && !(open == '"' && closing == '"') {
		return "", false, fmt.Errorf("malformed include %q", line)
	}
	name := arg[1 : len(arg)-1]
	if name == "" {
		return "", false, fmt.Errorf("empty include %q", line)
	}
	return name, true, nil
}
