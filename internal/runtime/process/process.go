package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/Paintersrp/procrace/internal/metrics"
	"github.com/Paintersrp/procrace/internal/tracker"
)

const outputWaitDelay = time.Second

// ExitStatus describes how a child terminated. Code is -1 when the child was
// terminated by a signal.
type ExitStatus struct {
	Code   int    `json:"code"`
	Signal string `json:"signal,omitempty"`
}

// Success reports whether the child exited with status zero.
func (s ExitStatus) Success() bool {
	return s.Code == 0 && s.Signal == ""
}

func (s ExitStatus) String() string {
	if s.Signal != "" {
		return "signal: " + s.Signal
	}
	return fmt.Sprintf("exit status %d", s.Code)
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithWorkdir sets the directory children are started in. Relative commands are
// resolved against it.
func WithWorkdir(dir string) Option {
	return func(l *Launcher) {
		l.workdir = dir
	}
}

// WithOutput sets the writers children inherit for stdout and stderr. A nil
// writer discards the stream.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(l *Launcher) {
		l.stdout = stdout
		l.stderr = stderr
	}
}

// WithEnv appends KEY=VALUE pairs to the environment inherited by children.
func WithEnv(env map[string]string) Option {
	return func(l *Launcher) {
		for k, v := range env {
			l.env = append(l.env, fmt.Sprintf("%s=%s", k, v))
		}
	}
}

// WithLogger sets the logger used for kill failures. Nil discards logs.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Launcher) {
		l.logger = logger
	}
}

// Launcher spawns children and records them in a shared registry.
type Launcher struct {
	registry *tracker.Registry
	workdir  string
	stdout   io.Writer
	stderr   io.Writer
	env      []string
	logger   *slog.Logger

	killGroup func(*exec.Cmd) error
}

// New constructs a launcher that appends every spawned child to registry.
func New(registry *tracker.Registry, opts ...Option) *Launcher {
	if registry == nil {
		panic("process.New: registry must not be nil")
	}
	l := &Launcher{
		registry: registry,
		stdout:   os.Stdout,
		stderr:   os.Stderr,

		killGroup: killGroup,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	if l.logger == nil {
		l.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l
}

// Launch starts command with no arguments, registers it, and blocks until it
// exits. A non-zero exit is reported through ExitStatus rather than as an error.
//
// If ctx is cancelled while the child is running its process group is killed
// and the returned error wraps ctx.Err().
func (l *Launcher) Launch(ctx context.Context, command string) (ExitStatus, error) {
	if strings.TrimSpace(command) == "" {
		metrics.ObserveSpawn(metrics.SpawnFailed)
		return ExitStatus{}, &SpawnError{Command: command, Err: ErrEmptyCommand}
	}
	if err := ctx.Err(); err != nil {
		metrics.ObserveSpawn(metrics.SpawnFailed)
		return ExitStatus{}, &SpawnError{Command: command, Err: err}
	}

	cmd := exec.Command(command)
	cmd.Dir = l.workdir
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr
	// Grandchildren holding the output pipes open must not stall Wait.
	cmd.WaitDelay = outputWaitDelay
	if len(l.env) > 0 {
		cmd.Env = append(os.Environ(), l.env...)
	}
	configureCmdSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		metrics.ObserveSpawn(metrics.SpawnFailed)
		return ExitStatus{}, &SpawnError{Command: command, Err: err}
	}
	if cmd.Process == nil || cmd.Process.Pid <= 0 {
		panic(fmt.Sprintf("process: %s started without a pid", command))
	}
	metrics.ObserveSpawn(metrics.SpawnStarted)

	pid := cmd.Process.Pid
	l.registry.Append(tracker.Process{PID: int32(pid), Name: command})

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
	}()

	select {
	case err := <-waitErr:
		return l.outcome(command, pid, cmd, err)
	case <-ctx.Done():
		l.kill(command, cmd)
		<-waitErr
		return exitStatus(cmd.ProcessState), fmt.Errorf("launch %s cancelled: %w", command, ctx.Err())
	}
}

// kill terminates the child's process group. When that fails the child itself
// is killed so the pending Wait can return.
func (l *Launcher) kill(command string, cmd *exec.Cmd) {
	err := l.killGroup(cmd)
	if err == nil {
		return
	}
	l.logger.Warn("kill process group failed; killing child", "command", command, "pid", cmd.Process.Pid, "error", err)
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		l.logger.Error("kill child failed", "command", command, "pid", cmd.Process.Pid, "error", err)
	}
}

func (l *Launcher) outcome(command string, pid int, cmd *exec.Cmd, err error) (ExitStatus, error) {
	if err != nil && !errors.Is(err, exec.ErrWaitDelay) {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return exitStatus(cmd.ProcessState), &WaitError{Command: command, PID: pid, Err: err}
		}
	}
	return exitStatus(cmd.ProcessState), nil
}

func exitStatus(state *os.ProcessState) ExitStatus {
	if state == nil {
		return ExitStatus{Code: -1}
	}
	return ExitStatus{Code: state.ExitCode(), Signal: exitSignal(state)}
}
