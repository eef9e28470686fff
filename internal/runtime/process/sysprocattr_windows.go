//go:build windows

package process

import (
	"errors"
	"os"
	"os/exec"
)

func configureCmdSysProcAttr(cmd *exec.Cmd) {}

// killGroup terminates the direct child only; Windows has no process group to
// signal without job objects.
func killGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func exitSignal(state *os.ProcessState) string {
	return ""
}
