package process

import (
	"errors"
	"fmt"
)

// ErrEmptyCommand is returned when Launch is called without a command.
var ErrEmptyCommand = errors.New("command must not be empty")

// SpawnError reports that a child could not be started. Nothing is registered
// when a spawn fails.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// WaitError reports that the exit of a running child could not be observed.
type WaitError struct {
	Command string
	PID     int
	Err     error
}

func (e *WaitError) Error() string {
	return fmt.Sprintf("wait %s (pid %d): %v", e.Command, e.PID, e.Err)
}

func (e *WaitError) Unwrap() error { return e.Err }
