//go:build linux

package process

import (
	"os/exec"
	"syscall"
)

// configureSysProcAttr makes helper commands (lsof, kill) receive SIGKILL if
// the supervisor dies while they are still running, so an abandoned
// reclamation never leaves them behind.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Pdeathsig: syscall.SIGKILL,
	}
}
