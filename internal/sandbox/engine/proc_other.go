//go:build !linux

package engine

import (
	"os/exec"
	"syscall"
)

func buildSysProcAttr() *syscall.SysProcAttr {
	return nil
}

// killProcessTree only reaches the direct child outside Linux.
func killProcessTree(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
