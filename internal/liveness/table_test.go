//go:build !windows

package liveness

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/Paintersrp/procrace/internal/tracker"
)

func TestSystemTableMatchesRunningAndExitedProcesses(t *testing.T) {
	running := exec.Command("sleep", "30")
	if err := running.Start(); err != nil {
		t.Fatalf("start sleep: %v", err)
	}
	t.Cleanup(func() {
		_ = running.Process.Kill()
		_ = running.Wait()
	})

	exited := exec.Command("true")
	if err := exited.Run(); err != nil {
		t.Fatalf("run true: %v", err)
	}

	reg := tracker.NewRegistry()
	reg.Append(tracker.Process{PID: int32(running.Process.Pid), Name: "sleep"})
	reg.Append(tracker.Process{PID: int32(exited.Process.Pid), Name: "true"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	report, err := NewPoller(reg, SystemTable{}, Options{}).Poll(ctx)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if !report.Processes[0].Alive {
		t.Fatalf("expected running sleep to be alive: %s", report)
	}
	if report.Processes[1].Alive {
		t.Fatalf("expected reaped process to be dead: %s", report)
	}
}
