package reload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"shaderedit/internal/config"
	"shaderedit/internal/ctxlog"
	"shaderedit/internal/library"
	"shaderedit/internal/shader"
	"shaderedit/internal/watcher"
)

const (
	configPath = "/assets/edit.json"
	shaderA    = "/assets/shaders/a.kage"
	shaderB    = "/assets/shaders/b.kage"
	libNoise   = "/assets/shader_library/noise.kage"
	libMath    = "/assets/shader_library/math.kage"
)

type fakeWatcher struct {
	watched      map[string]bool
	failWatch    map[string]bool
	queue        []watcher.Event
	disconnected bool
	calls        []string
	polls        int
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{watched: map[string]bool{}, failWatch: map[string]bool{}}
}

func (w *fakeWatcher) Watch(path string) error {
	w.calls = append(w.calls, "watch "+path)
	if w.failWatch[path] {
		return fmt.Errorf("watch %s: no such file", path)
	}
	w.watched[path] = true
	return nil
}

func (w *fakeWatcher) Unwatch(path string) error {
	w.calls = append(w.calls, "unwatch "+path)
	if !w.watched[path] {
		return fmt.Errorf("unwatch %s: %w", path, watcher.ErrNotWatched)
	}
	delete(w.watched, path)
	return nil
}

func (w *fakeWatcher) Poll() (watcher.Event, watcher.Status) {
	w.polls++
	if len(w.queue) > 0 {
		ev := w.queue[0]
		w.queue = w.queue[1:]
		return ev, watcher.Ready
	}
	if w.disconnected {
		return watcher.Event{}, watcher.Disconnected
	}
	return watcher.Event{}, watcher.Empty
}

func (w *fakeWatcher) push(kind watcher.Kind, path string) {
	w.queue = append(w.queue, watcher.Event{Kind: kind, Path: path})
}

func (w *fakeWatcher) paths() []string {
	out := make([]string, 0, len(w.watched))
	for p := range w.watched {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

type fakeLoader struct {
	cfg *config.Config
	err error
}

func (l *fakeLoader) Load(path string) (*config.Config, error) {
	if l.err != nil {
		return nil, &config.Error{Path: path, Err: l.err}
	}
	cfg := *l.cfg
	return &cfg, nil
}

// fakeCompiler expands includes through the real registry so that library
// content shows up in the artifact source.
type fakeCompiler struct {
	files    map[string]string
	registry *library.Registry
	compiles int
}

func (c *fakeCompiler) Compile(path string) (*shader.Artifact, error) {
	c.compiles++
	src, ok := c.files[path]
	if !ok {
		return nil, &shader.CompileError{Path: path, Err: fs.ErrNotExist}
	}
	if strings.Contains(src, "syntax error") {
		return nil, &shader.CompileError{Path: path, Err: errors.New("unexpected token")}
	}
	expanded, err := c.registry.Expand(src)
	if err != nil {
		return nil, &shader.CompileError{Path: path, Err: err}
	}
	return &shader.Artifact{Path: path, Source: []byte(expanded)}, nil
}

type fakeLibrary struct {
	registry    *library.Registry
	entries     []library.Entry
	manifestErr error
	sources     map[string]string
}

func (l *fakeLibrary) Entries() ([]library.Entry, error) {
	if l.manifestErr != nil {
		return nil, l.manifestErr
	}
	return append([]library.Entry(nil), l.entries...), nil
}

func (l *fakeLibrary) InjectAll(entries []library.Entry) (library.Pass, error) {
	pass := library.Pass{Entries: entries}
	for _, e := range entries {
		src, ok := l.sources[e.Path]
		if !ok {
			return pass, &library.FragmentError{Name: e.Name, Path: e.Path, Err: fs.ErrNotExist}
		}
		changed := l.registry.Add(e.Name, src)
		pass.Outcomes = append(pass.Outcomes, library.Outcome{Entry: e, Changed: changed})
	}
	return pass, nil
}

type harness struct {
	watcher  *fakeWatcher
	loader   *fakeLoader
	compiler *fakeCompiler
	library  *fakeLibrary
	registry *library.Registry
	logs     *bytes.Buffer
}

func newHarness() *harness {
	reg := library.NewRegistry()
	return &harness{
		watcher: newFakeWatcher(),
		loader: &fakeLoader{cfg: &config.Config{
			ShaderPath: shaderA,
			Parameters: config.Parameters{},
			Vertices:   4,
			Instances:  1,
			Fov:        2,
		}},
		compiler: &fakeCompiler{
			registry: reg,
			files: map[string]string{
				shaderA: "// shader A\n#include <noise.kage>\n",
				shaderB: "// shader B\n",
			},
		},
		library: &fakeLibrary{
			registry: reg,
			entries:  []library.Entry{{Name: "noise.kage", Path: libNoise}},
			sources:  map[string]string{libNoise: "noise v1"},
		},
		registry: reg,
		logs:     &bytes.Buffer{},
	}
}

func (h *harness) options() Options {
	return Options{
		ConfigPath: configPath,
		Config:     h.loader,
		Compiler:   h.compiler,
		Library:    h.library,
		Watcher:    h.watcher,
	}
}

func (h *harness) context() context.Context {
	logger := slog.New(slog.NewTextHandler(h.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return ctxlog.WithLogger(context.Background(), logger)
}

func (h *harness) start(t *testing.T) *Controller {
	t.Helper()
	c, err := New(h.context(), h.options())
	require.NoError(t, err)
	h.watcher.calls = nil
	return c
}

// watchedShaders returns the watched paths that are shader files.
func (h *harness) watchedShaders() []string {
	var out []string
	for _, p := range h.watcher.paths() {
		if p == shaderA || p == shaderB {
			out = append(out, p)
		}
	}
	return out
}
