//go:build !windows

package worker

import (
	"os/exec"
	"syscall"
)

// detach переводит процесс в собственную группу процессов.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
