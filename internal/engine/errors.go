package engine

import "errors"

// ErrAlreadyRunning is returned when Run is called on a supervisor that has
// already been started. The registry only grows for a single run.
var ErrAlreadyRunning = errors.New("supervisor already started")
