//go:build linux

package engine

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

func buildSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
}

// killProcessTree SIGKILLs the child's process group, taking javac/java
// helper processes down with it.
func killProcessTree(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	pid := cmd.Process.Pid
	if pid <= 0 {
		return
	}
	if err := unix.Kill(-pid, unix.SIGKILL); err != nil {
		_ = cmd.Process.Kill()
	}
}
