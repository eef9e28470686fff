// Package liveness periodically cross-references the process registry with the
// OS process table and reports which tracked processes are still running.
//
// A PID is considered alive whenever it appears in the process table. PIDs are
// not verified against start time or parent, so a process that exits and whose
// PID is reused between two cycles is reported alive.
package liveness

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/Paintersrp/procrace/internal/metrics"
	"github.com/Paintersrp/procrace/internal/tracker"
)

// DefaultInterval is the delay between poll cycles.
const DefaultInterval = 2 * time.Second

// Options configures a Poller.
type Options struct {
	// Interval between cycles. Zero selects DefaultInterval.
	Interval time.Duration
	// TerminateWhenAllDead stops Run once the registry is non-empty and every
	// tracked process is dead.
	TerminateWhenAllDead bool
	// Output receives the rendered report every cycle. Nil discards it.
	Output io.Writer
	Logger *slog.Logger
}

// Poller reports liveness of the processes in a registry.
type Poller struct {
	registry *tracker.Registry
	table    ProcessTable
	opts     Options
	logger   *slog.Logger

	sleep   func(context.Context, time.Duration) error
	observe func(tracked, alive int)
}

// NewPoller constructs a poller over registry. A nil table selects SystemTable.
func NewPoller(registry *tracker.Registry, table ProcessTable, opts Options) *Poller {
	if registry == nil {
		panic("liveness.NewPoller: registry must not be nil")
	}
	if table == nil {
		table = SystemTable{}
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Output == nil {
		opts.Output = io.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Poller{
		registry: registry,
		table:    table,
		opts:     opts,
		logger:   logger,
		sleep:    sleepWithContext,
		observe:  metrics.ObservePoll,
	}
}

// Poll performs a single cycle and returns the report without emitting it.
func (p *Poller) Poll(ctx context.Context) (Report, error) {
	pids, err := p.table.PIDs(ctx)
	if err != nil {
		return Report{}, &EnumerationError{Err: err}
	}
	return buildReport(p.registry.Snapshot(), pids), nil
}

// Run polls until ctx is cancelled, an enumeration fails, or, when
// TerminateWhenAllDead is set, every tracked process has exited. Cancellation
// is the owner abandoning the poller and is not an error.
func (p *Poller) Run(ctx context.Context) error {
	for {
		report, err := p.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Error("liveness poll failed", "error", err)
			return err
		}
		p.observe(len(report.Processes), report.Alive())
		if _, err := report.WriteTo(p.opts.Output); err != nil {
			p.logger.Warn("write liveness report", "error", err)
		}
		p.logger.Debug("liveness poll", "tracked", len(report.Processes), "alive", report.Alive())

		if p.opts.TerminateWhenAllDead && report.AllDead() {
			p.logger.Info("all tracked processes exited; stopping liveness poller", "tracked", len(report.Processes))
			return nil
		}

		if err := p.sleep(ctx, p.opts.Interval); err != nil {
			return nil
		}
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
