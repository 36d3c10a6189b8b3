package reload

import (
	"errors"
	"fmt"
)

// ErrDisconnected is logged when the watcher's event stream closes. The
// controller stops auto-reloading but keeps serving its last artifact.
var ErrDisconnected = errors.New("disconnected from the watcher channel")

// StartupError is fatal: without an initial config, library set and shader
// there is nothing to draw.
type StartupError struct {
	Stage string
	Path  string
	Err   error
}

func (e *StartupError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("startup failed loading %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("startup failed loading %s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}
