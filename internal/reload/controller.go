// Package reload owns the live shader: it interprets watcher events, reloads
// the config, the shader and the shader library, and keeps the last shader
// that compiled whenever a reload fails.
package reload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"shaderedit/internal/config"
	"shaderedit/internal/ctxlog"
	"shaderedit/internal/library"
	"shaderedit/internal/shader"
	"shaderedit/internal/watcher"
)

// State of the controller between ticks.
type State int

const (
	Idle State = iota
	// Reloading is held only while Update handles an event.
	Reloading
	// Degraded means the watcher is gone and nothing will auto-reload again.
	Degraded
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Reloading:
		return "reloading"
	case Degraded:
		return "degraded"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type Watcher interface {
	Watch(path string) error
	Unwatch(path string) error
	Poll() (watcher.Event, watcher.Status)
}

type Compiler interface {
	Compile(path string) (*shader.Artifact, error)
}

type ConfigLoader interface {
	Load(path string) (*config.Config, error)
}

type Library interface {
	Entries() ([]library.Entry, error)
	InjectAll(entries []library.Entry) (library.Pass, error)
}

// Options wires a Controller to its collaborators. ConfigPath must already
// be resolved against the assets root.
type Options struct {
	ConfigPath string
	Config     ConfigLoader
	Compiler   Compiler
	Library    Library
	Watcher    Watcher
}

// Controller is driven by Update once per frame and is not safe for
// concurrent use.
type Controller struct {
	logger   *slog.Logger
	watcher  Watcher
	compiler Compiler
	loader   ConfigLoader
	library  Library

	configPath string
	config     *config.Config
	artifact   *shader.Artifact

	// watchedShader can differ from artifact.Path after a failed compile:
	// the watch follows the configured path, the artifact stays last-known-good.
	watchedShader  string
	libraryWatches map[string]struct{}

	state   State
	elapsed float64
}

// New performs the initial load. Every error it returns is a *StartupError.
func New(ctx context.Context, opts Options) (*Controller, error) {
	logger := ctxlog.FromContext(ctx)

	cfg, err := opts.Config.Load(opts.ConfigPath)
	if err != nil {
		return nil, &StartupError{Stage: "config", Path: opts.ConfigPath, Err: err}
	}
	logger.Debug("Config loaded.", "path", opts.ConfigPath, "shader", cfg.ShaderPath)

	entries, err := opts.Library.Entries()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, &StartupError{Stage: "library manifest", Err: err}
		}
		logger.Warn("Failed to load shader library list, continuing without a library.", "err", err)
		entries = nil
	}
	if _, err := opts.Library.InjectAll(entries); err != nil {
		return nil, &StartupError{Stage: "library", Err: err}
	}

	art, err := opts.Compiler.Compile(cfg.ShaderPath)
	if err != nil {
		return nil, &StartupError{Stage: "shader", Path: cfg.ShaderPath, Err: err}
	}

	c := &Controller{
		logger:         logger,
		watcher:        opts.Watcher,
		compiler:       opts.Compiler,
		loader:         opts.Config,
		library:        opts.Library,
		configPath:     opts.ConfigPath,
		config:         cfg,
		artifact:       art,
		libraryWatches: make(map[string]struct{}),
		state:          Idle,
	}

	c.watch(c.configPath)
	if c.watch(cfg.ShaderPath) {
		c.watchedShader = cfg.ShaderPath
	}
	c.syncLibraryWatches(entries)

	logger.Info("Shader loaded.", "path", art.Path, "library_fragments", len(entries))
	return c, nil
}

// Current returns the active artifact. The caller may only use it until the next Update.
func (c *Controller) Current() *shader.Artifact { return c.artifact }

func (c *Controller) Config() *config.Config { return c.config }

func (c *Controller) ConfigPath() string { return c.configPath }

// State is Idle or Degraded between calls to Update.
func (c *Controller) State() State { return c.state }

// Elapsed is the total of every delta passed to Update. Reloads never reset it.
func (c *Controller) Elapsed() float64 { return c.elapsed }

// Update advances the clock and handles at most one watcher event.
func (c *Controller) Update(delta float64) {
	c.elapsed += delta
	if c.state == Degraded {
		return
	}

	ev, status := c.watcher.Poll()
	switch status {
	case watcher.Empty:
		return
	case watcher.Disconnected:
		c.logger.Error("Live reload stopped.", "err", ErrDisconnected)
		c.state = Degraded
		return
	}
	c.handle(ev)
}

func (c *Controller) handle(ev watcher.Event) {
	c.logger.Debug("Notify event.", "kind", ev.Kind, "path", ev.Path)

	switch ev.Kind {
	case watcher.Changed:
		c.reloadPath(ev.Path)
	case watcher.Removed:
		// Some editors save by deleting and recreating the file, which drops the watch.
		if !c.switchWatch(ev.Path, ev.Path) {
			c.forget(ev.Path)
		}
		c.reloadPath(ev.Path)
	case watcher.WatchError:
		c.logger.Error("Notify error.", "path", ev.Path, "err", ev.Err)
	}
}

func (c *Controller) reloadPath(path string) {
	c.state = Reloading
	defer func() { c.state = Idle }()

	if path == c.configPath {
		cfg, err := c.loader.Load(path)
		if err != nil {
			c.logger.Error("Failed to reload config.", "path", path, "err", err)
			return
		}
		c.config = cfg
		c.logger.Info("Config reloaded.", "path", path, "shader", cfg.ShaderPath)
	}
	c.reloadShader()
}

func (c *Controller) reloadShader() {
	target := c.config.ShaderPath
	if c.watchedShader != target {
		old := c.watchedShader
		c.watchedShader = ""
		if c.switchWatch(old, target) {
			c.watchedShader = target
		}
	}

	art, err := c.compiler.Compile(target)
	if err != nil {
		c.logger.Error("Failed to load program.", "path", target, "err", err)
		return
	}
	c.adopt(art)

	pass, err := c.reloadLibrary()
	if err != nil {
		c.logger.Error("Failed to reload shader library.", "err", err, "injected", len(pass.Outcomes))
	}
	if pass.Changed() {
		// The program above was built against the previous library content.
		fresh, err := c.compiler.Compile(target)
		if err != nil {
			c.logger.Error("Failed to rebuild program against the new library.", "path", target, "err", err)
		} else {
			c.adopt(fresh)
		}
	}
	c.logger.Info("Shader reloaded.", "path", c.artifact.Path)
}

func (c *Controller) adopt(art *shader.Artifact) {
	old := c.artifact
	c.artifact = art
	if old != nil && old != art {
		old.Release()
	}
}

func (c *Controller) reloadLibrary() (library.Pass, error) {
	entries, err := c.library.Entries()
	if err != nil {
		return library.Pass{}, err
	}
	c.syncLibraryWatches(entries)
	return c.library.InjectAll(entries)
}

// syncLibraryWatches makes the watched fragment set follow the manifest.
func (c *Controller) syncLibraryWatches(entries []library.Entry) {
	wanted := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		wanted[e.Path] = struct{}{}
	}

	for path := range c.libraryWatches {
		if _, ok := wanted[path]; ok {
			continue
		}
		delete(c.libraryWatches, path)
		if !c.sharedWatch(path) && path != c.watchedShader {
			c.unwatch(path)
		}
	}
	for _, e := range entries {
		if _, ok := c.libraryWatches[e.Path]; ok {
			continue
		}
		if c.watch(e.Path) {
			c.libraryWatches[e.Path] = struct{}{}
		}
	}
}

// switchWatch moves a watch from oldPath to newPath. Both steps are attempted
// and logged on their own; the result is whether newPath is now watched.
func (c *Controller) switchWatch(oldPath, newPath string) bool {
	if oldPath != "" && (oldPath == newPath || !c.sharedWatch(oldPath)) {
		c.unwatch(oldPath)
	}
	return c.watch(newPath)
}

// forget drops path from the watch bookkeeping so the next reload retries it.
func (c *Controller) forget(path string) {
	if path == c.watchedShader {
		c.watchedShader = ""
	}
	delete(c.libraryWatches, path)
}

// sharedWatch reports whether path is watched as the config or a library fragment.
func (c *Controller) sharedWatch(path string) bool {
	if path == c.configPath {
		return true
	}
	_, ok := c.libraryWatches[path]
	return ok
}

func (c *Controller) watch(path string) bool {
	if err := c.watcher.Watch(path); err != nil {
		c.logger.Error("Failed to start watching.", "path", path, "err", err)
		return false
	}
	return true
}

func (c *Controller) unwatch(path string) {
	err := c.watcher.Unwatch(path)
	switch {
	case err == nil:
	case errors.Is(err, watcher.ErrNotWatched):
		c.logger.Debug("Watch already gone.", "path", path)
	default:
		c.logger.Warn("Failed to unwatch.", "path", path, "err", err)
	}
}
