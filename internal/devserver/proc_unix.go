//go:build !windows

package devserver

import (
	"os/exec"
	"syscall"
)

// detach puts the server in its own process group so terminal signals sent to
// the CLI do not reach it.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killGroup kills what is left of the server's process group. The group id is
// the server's pid because of Setpgid.
func killGroup(pid int) {
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
