// Package engine composes the process registry, the liveness poller and the race
// coordinator into a single supervisor run.
package engine

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Paintersrp/procrace/internal/liveness"
	"github.com/Paintersrp/procrace/internal/race"
	"github.com/Paintersrp/procrace/internal/runtime/process"
	"github.com/Paintersrp/procrace/internal/tracker"
)

// Config wires a Supervisor.
type Config struct {
	Participants []race.Participant

	// Workdir and Env apply to every spawned child.
	Workdir string
	Env     map[string]string

	PollInterval         time.Duration
	TerminateWhenAllDead bool
	// Table overrides the OS process table.
	Table liveness.ProcessTable

	// Output receives liveness reports and race resolution lines.
	Output io.Writer
	// ChildStdout and ChildStderr are inherited by children. Nil selects the
	// supervisor's own stdout and stderr.
	ChildStdout io.Writer
	ChildStderr io.Writer

	Logger *slog.Logger
}

// Supervisor owns the shared registry and runs one race while the liveness
// poller observes every spawned child.
type Supervisor struct {
	registry     *tracker.Registry
	poller       *liveness.Poller
	coordinator  *race.Coordinator
	participants []race.Participant
	terminate    bool
	logger       *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewSupervisor constructs a supervisor from cfg.
func NewSupervisor(cfg Config) *Supervisor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	stdout, stderr := cfg.ChildStdout, cfg.ChildStderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	registry := tracker.NewRegistry()
	launcher := process.New(registry,
		process.WithWorkdir(cfg.Workdir),
		process.WithEnv(cfg.Env),
		process.WithOutput(stdout, stderr),
		process.WithLogger(logger.With("component", "process")),
	)
	poller := liveness.NewPoller(registry, cfg.Table, liveness.Options{
		Interval:             cfg.PollInterval,
		TerminateWhenAllDead: cfg.TerminateWhenAllDead,
		Output:               out,
		Logger:               logger.With("component", "liveness"),
	})
	coordinator := race.New(launcher,
		race.WithOutput(out),
		race.WithLogger(logger.With("component", "race")),
	)

	return &Supervisor{
		registry:     registry,
		poller:       poller,
		coordinator:  coordinator,
		participants: append([]race.Participant(nil), cfg.Participants...),
		terminate:    cfg.TerminateWhenAllDead,
		logger:       logger,
	}
}

// Registry exposes the shared process registry.
func (s *Supervisor) Registry() *tracker.Registry {
	return s.registry
}

// Poller exposes the liveness poller for on-demand reports.
func (s *Supervisor) Poller() *liveness.Poller {
	return s.poller
}

// Run starts the liveness poller, runs the race to completion and then either
// waits for the poller to stop on its own (TerminateWhenAllDead) or abandons it.
// The first error from either path cancels the other and is returned.
func (s *Supervisor) Run(ctx context.Context) (race.Result, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return race.Result{}, ErrAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	pollCtx, stopPoller := context.WithCancel(gctx)
	defer stopPoller()

	g.Go(func() error {
		return s.poller.Run(pollCtx)
	})

	var result race.Result
	g.Go(func() error {
		res, err := s.coordinator.Run(gctx, s.participants)
		result = res
		if err != nil {
			return err
		}
		if !s.terminate {
			s.logger.Debug("race resolved; abandoning liveness poller")
			stopPoller()
		}
		return nil
	})

	err := g.Wait()
	return result, err
}
