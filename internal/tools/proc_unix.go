//go:build !windows

package tools

import (
	"context"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// shellCommand starts command in its own process group so a timeout kills
// every descendant, not just the shell.
func shellCommand(ctx context.Context, command string) *exec.Cmd {
	shell := "/bin/bash"
	if _, err := os.Stat(shell); err != nil {
		shell = "/bin/sh"
	}
	cmd := exec.CommandContext(ctx, shell, "-c", command)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 2 * time.Second
	return cmd
}
