//go:build !windows

package cli

import (
	"bytes"
	stdcontext "context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func writeRaceFixture(t *testing.T, short string) string {
	t.Helper()
	dir := t.TempDir()
	scripts := map[string]string{
		"never_ending.sh":  "while true; do sleep 1; done",
		"finishes_fast.sh": short,
	}
	for name, body := range scripts {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	manifest := raceManifest(
		"poller:",
		"  interval: 50ms",
		"participants:",
		"  - name: never_ending_1",
		"    command: ./never_ending.sh",
		"  - name: never_ending_2",
		"    command: ./never_ending.sh",
		"  - name: short_lived",
		"    command: ./finishes_fast.sh",
	)
	path := filepath.Join(dir, "procrace.yaml")
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func executeRun(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	out := &lockedBuffer{}
	errOut := &lockedBuffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)

	ctx, cancel := stdcontext.WithTimeout(stdcontext.Background(), 15*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	if ctx.Err() != nil {
		t.Fatalf("run did not finish before the deadline")
	}
	return out.String(), errOut.String(), err
}

func TestRunShortLivedWins(t *testing.T) {
	path := writeRaceFixture(t, "sleep 0.2")

	stdout, stderr, err := executeRun(t, "run", "--file", path)
	if err != nil {
		t.Fatalf("run returned error: %v\nstderr: %s", err, stderr)
	}
	if !strings.Contains(stdout, "short_lived finished\n") {
		t.Fatalf("missing race resolution line:\n%s", stdout)
	}
	if !strings.Contains(stdout, "./never_ending.sh(") || !strings.Contains(stdout, "-- alive: false") {
		t.Fatalf("missing liveness report:\n%s", stdout)
	}
	if !strings.Contains(stderr, "race complete") {
		t.Fatalf("expected completion log, got:\n%s", stderr)
	}
}

func TestRunKeepPollingAbandonsPoller(t *testing.T) {
	path := writeRaceFixture(t, "sleep 0.2")

	stdout, _, err := executeRun(t, "run", "--file", path, "--keep-polling", "--interval", "1h")
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if !strings.Contains(stdout, "short_lived finished") {
		t.Fatalf("missing race resolution line:\n%s", stdout)
	}
}

func TestRunSpawnFailureIsReported(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "procrace.yaml")
	manifest := raceManifest(
		"participants:",
		"  - name: ghost",
		"    command: ./missing.sh",
	)
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	_, _, err := executeRun(t, "run", "--file", path)
	if err == nil || !strings.Contains(err.Error(), "race failed") || !strings.Contains(err.Error(), "ghost") {
		t.Fatalf("expected spawn failure, got %v", err)
	}
}

func TestRunMetricsBindFailureStopsBeforeRace(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer busy.Close()

	path := writeRaceFixture(t, "sleep 5")
	start := time.Now()
	stdout, _, err := executeRun(t, "run", "--file", path, "--metrics-addr", busy.Addr().String())
	if err == nil || !strings.Contains(err.Error(), "metrics server") {
		t.Fatalf("expected bind failure, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("bind failure took %s to surface", elapsed)
	}
	if stdout != "" {
		t.Fatalf("race should not have started:\n%s", stdout)
	}
}
