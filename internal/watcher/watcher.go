package watcher

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period a path needs before its change is surfaced.
const DefaultDebounce = time.Second

// ErrNotWatched is returned by Unwatch for a path without a subscription. The
// backend drops a watch on its own when the file is deleted or renamed away.
var ErrNotWatched = errors.New("path is not watched")

// eventBuffer is how many debounced events may queue up between polls.
const eventBuffer = 64

// Kind classifies a surfaced event.
type Kind int

const (
	// Changed covers creates and writes.
	Changed Kind = iota
	// Removed means the path was deleted or renamed away; its watch is gone.
	Removed
	// WatchError carries an error reported by the notification backend.
	WatchError
)

func (k Kind) String() string {
	switch k {
	case Changed:
		return "changed"
	case Removed:
		return "removed"
	case WatchError:
		return "watch-error"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Event is one debounced change.
type Event struct {
	Kind Kind
	Path string
	Err  error
}

// Status is the outcome of a Poll.
type Status int

const (
	// Empty means no event is waiting.
	Empty Status = iota
	// Ready means the returned event is valid.
	Ready
	// Disconnected means the background goroutine has stopped for good.
	Disconnected
)

func (s Status) String() string {
	switch s {
	case Empty:
		return "empty"
	case Ready:
		return "ready"
	case Disconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Watcher subscribes to individual files and delivers debounced events.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger

	events chan Event
	done   chan struct{}

	closeOnce sync.Once
	closeErr  error
	wg        sync.WaitGroup
}

type pendingEvent struct {
	kind     Kind
	deadline time.Time
}

// New starts the background goroutine. A non-positive debounce uses DefaultDebounce.
func New(debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize a watcher: %w", err)
	}

	w := &Watcher{
		fs:       fs,
		debounce: debounce,
		logger:   logger,
		events:   make(chan Event, eventBuffer),
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Watch subscribes to a single file.
func (w *Watcher) Watch(path string) error {
	if err := w.fs.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	w.logger.Debug("Watching path.", "path", path)
	return nil
}

// Unwatch drops the subscription for path.
func (w *Watcher) Unwatch(path string) error {
	if err := w.fs.Remove(path); err != nil {
		if errors.Is(err, fsnotify.ErrNonExistentWatch) {
			return fmt.Errorf("unwatch %s: %w", path, ErrNotWatched)
		}
		return fmt.Errorf("unwatch %s: %w", path, err)
	}
	w.logger.Debug("Stopped watching path.", "path", path)
	return nil
}

// Watched lists the currently subscribed paths in sorted order.
func (w *Watcher) Watched() []string {
	paths := w.fs.WatchList()
	sort.Strings(paths)
	return paths
}

// Poll returns the next debounced event without blocking.
func (w *Watcher) Poll() (Event, Status) {
	select {
	case ev, ok := <-w.events:
		if !ok {
			return Event{}, Disconnected
		}
		return ev, Ready
	default:
		return Event{}, Empty
	}
}

// Close stops watching everything. Events already queued can still be polled
// before Poll reports Disconnected.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
		w.closeErr = w.fs.Close()
		w.wg.Wait()
	})
	return w.closeErr
}

func (w *Watcher) run() {
	defer w.wg.Done()
	defer close(w.events)

	pending := make(map[string]pendingEvent)
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fs.Events:
			if !ok {
				w.logger.Warn("Notification backend closed its event channel.")
				return
			}
			w.record(pending, ev)
			w.schedule(timer, pending)

		case err, ok := <-w.fs.Errors:
			if !ok {
				w.logger.Warn("Notification backend closed its error channel.")
				return
			}
			if !w.emit(Event{Kind: WatchError, Err: err}) {
				return
			}

		case now := <-timer.C:
			if !w.flush(pending, now) {
				return
			}
			w.schedule(timer, pending)
		}
	}
}

// record folds a raw notification into the pending set. A removal sticks for
// the rest of the window.
func (w *Watcher) record(pending map[string]pendingEvent, ev fsnotify.Event) {
	var kind Kind
	switch {
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		kind = Removed
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		kind = Changed
	default:
		return
	}

	if prev, ok := pending[ev.Name]; ok && prev.kind == Removed {
		kind = Removed
	}
	pending[ev.Name] = pendingEvent{kind: kind, deadline: time.Now().Add(w.debounce)}
}

func (w *Watcher) schedule(timer *time.Timer, pending map[string]pendingEvent) {
	if len(pending) == 0 {
		timer.Stop()
		return
	}
	var next time.Time
	for _, p := range pending {
		if next.IsZero() || p.deadline.Before(next) {
			next = p.deadline
		}
	}
	timer.Reset(max(time.Until(next), 0))
}

// flush emits every path whose quiet period has elapsed, oldest first.
func (w *Watcher) flush(pending map[string]pendingEvent, now time.Time) bool {
	due := make([]string, 0, len(pending))
	for path, p := range pending {
		if !p.deadline.After(now) {
			due = append(due, path)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return pending[due[i]].deadline.Before(pending[due[j]].deadline)
	})

	for _, path := range due {
		kind := pending[path].kind
		delete(pending, path)
		if !w.emit(Event{Kind: kind, Path: path}) {
			return false
		}
	}
	return true
}

func (w *Watcher) emit(ev Event) bool {
	select {
	case w.events <- ev:
		return true
	case <-w.done:
		return false
	}
}
