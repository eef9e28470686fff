package liveness

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessTable enumerates the PIDs currently present in the OS process table.
type ProcessTable interface {
	PIDs(ctx context.Context) (map[int32]struct{}, error)
}

// ProcessTableFunc adapts a function to the ProcessTable interface.
type ProcessTableFunc func(ctx context.Context) (map[int32]struct{}, error)

// PIDs calls f(ctx).
func (f ProcessTableFunc) PIDs(ctx context.Context) (map[int32]struct{}, error) {
	return f(ctx)
}

// SystemTable reads the host process table.
type SystemTable struct{}

// PIDs returns every PID known to the operating system. Exited children that
// have not yet been reaped are still listed.
func (SystemTable) PIDs(ctx context.Context) (map[int32]struct{}, error) {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pids: %w", err)
	}
	set := make(map[int32]struct{}, len(pids))
	for _, pid := range pids {
		set[pid] = struct{}{}
	}
	return set, nil
}

// EnumerationError reports a failure to read the OS process table. It is fatal
// to the poller: a stale or empty snapshot would produce misleading reports.
type EnumerationError struct {
	Err error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("enumerate processes: %v", e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }
