//go:build !windows

package engine

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/Paintersrp/procrace/internal/liveness"
	"github.com/Paintersrp/procrace/internal/race"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func writeRaceScripts(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	scripts := map[string]string{
		"never_ending.sh":  "while true; do sleep 1; done",
		"finishes_fast.sh": "sleep 0.2",
	}
	for name, body := range scripts {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func assertAllExited(t *testing.T, s *Supervisor) {
	t.Helper()
	for _, p := range s.Registry().Snapshot() {
		if err := syscall.Kill(int(p.PID), 0); !errors.Is(err, syscall.ESRCH) {
			t.Fatalf("process %s still present: %v", p, err)
		}
	}
}

func TestSupervisorHardenedPollerStopsAfterRace(t *testing.T) {
	dir := writeRaceScripts(t)
	out := &syncBuffer{}

	s := NewSupervisor(Config{
		Participants:         race.DefaultParticipants("./never_ending.sh", "./finishes_fast.sh"),
		Workdir:              dir,
		PollInterval:         50 * time.Millisecond,
		TerminateWhenAllDead: true,
		Output:               out,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Winner.Name != "short_lived" {
		t.Fatalf("expected short_lived to win, got %s", result.Winner.Name)
	}
	if ctx.Err() != nil {
		t.Fatalf("supervisor only returned after the deadline")
	}

	text := out.String()
	if !strings.Contains(text, "short_lived finished\n") {
		t.Fatalf("missing race resolution line:\n%s", text)
	}
	if !strings.Contains(text, "-- alive: false") {
		t.Fatalf("expected a report with dead processes:\n%s", text)
	}
	if s.Registry().Len() != 4 {
		t.Fatalf("expected 4 tracked processes, got %d", s.Registry().Len())
	}
	assertAllExited(t, s)

	if _, err := s.Run(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning on second run, got %v", err)
	}
}

func TestSupervisorBasicPollerIsAbandoned(t *testing.T) {
	dir := writeRaceScripts(t)

	s := NewSupervisor(Config{
		Participants: race.DefaultParticipants("./never_ending.sh", "./finishes_fast.sh"),
		Workdir:      dir,
		PollInterval: time.Hour,
		Output:       &syncBuffer{},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if ctx.Err() != nil {
		t.Fatalf("supervisor waited for the poller instead of abandoning it")
	}
	assertAllExited(t, s)
}

func TestSupervisorEnumerationFailureStopsRace(t *testing.T) {
	dir := writeRaceScripts(t)

	var calls int
	var mu sync.Mutex
	table := liveness.ProcessTableFunc(func(ctx context.Context) (map[int32]struct{}, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls > 1 {
			return nil, errors.New("proc unavailable")
		}
		return map[int32]struct{}{}, nil
	})

	s := NewSupervisor(Config{
		Participants: []race.Participant{
			{Name: "never_ending_1", Command: "./never_ending.sh"},
			{Name: "never_ending_2", Command: "./never_ending.sh"},
		},
		Workdir:      dir,
		PollInterval: 100 * time.Millisecond,
		Table:        table,
		Output:       &syncBuffer{},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := s.Run(ctx)
	var enumErr *liveness.EnumerationError
	if !errors.As(err, &enumErr) {
		t.Fatalf("expected EnumerationError, got %v", err)
	}
	assertAllExited(t, s)
}

func TestSupervisorSpawnFailurePropagates(t *testing.T) {
	s := NewSupervisor(Config{
		Participants: []race.Participant{{Name: "missing", Command: "./does-not-exist.sh"}},
		Workdir:      t.TempDir(),
		Output:       &syncBuffer{},
	})

	_, err := s.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected spawn failure for participant missing, got %v", err)
	}
}
