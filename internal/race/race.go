// Package race launches several children concurrently and resolves as soon as
// the first of them completes, killing the rest.
package race

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/Paintersrp/procrace/internal/metrics"
	"github.com/Paintersrp/procrace/internal/runtime/process"
)

// ErrNoParticipants is returned when a race is started without participants.
var ErrNoParticipants = errors.New("race requires at least one participant")

// Launcher runs a single child to completion. Cancelling ctx must terminate the
// child before Launch returns.
type Launcher interface {
	Launch(ctx context.Context, command string) (process.ExitStatus, error)
}

// Participant is one racing child.
type Participant struct {
	Name    string `json:"name" yaml:"name"`
	Command string `json:"command" yaml:"command"`
}

// DefaultParticipants returns three long-running participants and one
// short-running participant.
func DefaultParticipants(longCommand, shortCommand string) []Participant {
	return []Participant{
		{Name: "never_ending_1", Command: longCommand},
		{Name: "never_ending_2", Command: longCommand},
		{Name: "never_ending_3", Command: longCommand},
		{Name: "short_lived", Command: shortCommand},
	}
}

// Result describes the participant that resolved the race.
type Result struct {
	Winner Participant
	Status process.ExitStatus
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithOutput sets the sink receiving the race resolution line.
func WithOutput(w io.Writer) Option {
	return func(c *Coordinator) {
		if w != nil {
			c.out = w
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Coordinator runs first-completion-wins races.
type Coordinator struct {
	launcher Launcher
	out      io.Writer
	logger   *slog.Logger
}

// New constructs a coordinator that launches participants with launcher.
func New(launcher Launcher, opts ...Option) *Coordinator {
	if launcher == nil {
		panic("race.New: launcher must not be nil")
	}
	c := &Coordinator{
		launcher: launcher,
		out:      io.Discard,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

type completion struct {
	participant Participant
	status      process.ExitStatus
	err         error
}

// Run launches every participant concurrently and returns once the first one
// completes, whether it exited or failed. The remaining participants are
// cancelled and Run waits until each of them has returned, so no losing child
// outlives the race. Only the winner's error is reported.
func (c *Coordinator) Run(ctx context.Context, participants []Participant) (Result, error) {
	if len(participants) == 0 {
		return Result{}, ErrNoParticipants
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Sized so losers never block after the race is decided.
	done := make(chan completion, len(participants))
	var wg sync.WaitGroup
	for _, p := range participants {
		wg.Add(1)
		go func(p Participant) {
			defer wg.Done()
			status, err := c.launcher.Launch(raceCtx, p.Command)
			done <- completion{participant: p, status: status, err: err}
		}(p)
	}

	first := <-done
	cancel()
	wg.Wait()

	if first.err != nil {
		c.logger.Warn("race resolved by failed participant", "winner", first.participant.Name, "command", first.participant.Command, "error", first.err)
	} else {
		c.logger.Info("race resolved", "winner", first.participant.Name, "command", first.participant.Command, "status", first.status.String())
	}
	metrics.ObserveRaceWin(first.participant.Name)
	fmt.Fprintf(c.out, "%s finished\n", first.participant.Name)

	result := Result{Winner: first.participant, Status: first.status}
	if first.err != nil {
		return result, fmt.Errorf("participant %s: %w", first.participant.Name, first.err)
	}
	return result, nil
}
