//go:build windows

package worker

import (
	"os/exec"
	"syscall"
)

const createNewProcessGroup = 0x00000200

// detach запускает процесс в новой группе процессов.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNewProcessGroup}
}
