// Package watcher turns fsnotify notifications into a debounced stream of
// change events that a frame loop can poll without blocking.
//
// # Overview
//
// fsnotify runs its own goroutine; this package adds a second one that
// coalesces the raw notifications per path and forwards one Event per path
// once that path has been quiet for the debounce window. The consumer calls
// Poll once per tick and never waits.
//
// Editors that save by deleting and recreating a file produce a Remove
// followed by a Create. A removal inside a debounce window wins over any
// write or create in the same window, so the consumer sees Removed and knows
// the watch on that path has to be re-established.
//
// # Lifecycle
//
//	w, err := watcher.New(time.Second, logger)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	if err := w.Watch(path); err != nil {
//	    logger.Error("Failed to start watching.", "path", path, "err", err)
//	}
//
//	// once per frame
//	switch ev, status := w.Poll(); status {
//	case watcher.Ready:
//	    handle(ev)
//	case watcher.Disconnected:
//	    // no more events will ever arrive
//	}
//
// Close stops the background goroutine and closes the event stream; Poll
// reports Disconnected from then on.
package watcher
