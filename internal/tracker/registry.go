// Package tracker holds the shared, append-only record of child processes spawned
// during a supervisor run.
package tracker

import (
	"fmt"
	"sync"
)

// Process identifies a spawned child under supervision. PIDs are only unique at a
// point in time; the operating system may reuse them once the process is gone.
type Process struct {
	PID  int32  `json:"pid" yaml:"pid"`
	Name string `json:"name" yaml:"name"`
}

func (p Process) String() string {
	return fmt.Sprintf("%s(%d)", p.Name, p.PID)
}

// Registry is an ordered collection of tracked processes shared by every launcher
// and the liveness poller. Records are never removed; staleness is determined by
// inspecting the OS process table, not by registry membership.
type Registry struct {
	mu        sync.Mutex
	processes []Process
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Append records a newly spawned process at the end of the registry.
func (r *Registry) Append(p Process) {
	if p.PID <= 0 {
		panic("tracker.Registry.Append: pid must be positive")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.processes = append(r.processes, p)
}

// Snapshot returns a point-in-time copy of the registry in spawn order. Callers
// may iterate it without holding the registry lock.
func (r *Registry) Snapshot() []Process {
	r.mu.Lock()
	defer r.mu.Unlock()

	dup := make([]Process, len(r.processes))
	copy(dup, r.processes)
	return dup
}

// Len reports the number of tracked processes.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.processes)
}
