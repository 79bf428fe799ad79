package worker

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/cenkalti/backoff/v4"

	"github.com/shaiso/launchpad/internal/domain"
)

// ExecLauncher запускает исполняемый файл как отдельный процесс.
//
// Процесс отвязывается от группы процессов launchpad (см. detach),
// поэтому переживает завершение run и Ctrl+C в терминале.
type ExecLauncher struct{}

// Launch реализует Launcher.
func (l *ExecLauncher) Launch(ctx context.Context, task *domain.Task) error {
	if task.Command == "" {
		return backoff.Permanent(fmt.Errorf("%w: exec task %q has no command", ErrInvalidTask, task.Name))
	}

	path, err := resolveCommand(task.Command)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}

	if task.Path != "" {
		if info, err := os.Stat(task.Path); err != nil || !info.IsDir() {
			return fmt.Errorf("%w: working directory %q not found", ErrLaunchFailed, task.Path)
		}
	}

	// Не CommandContext: приложение не должно умирать вместе с run.
	cmd := exec.Command(path, task.Args...)
	cmd.Dir = task.Path
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}

	// Забираем статус, чтобы не оставлять зомби.
	go func() { _ = cmd.Wait() }()

	return nil
}

// resolveCommand находит исполняемый файл: абсолютный путь проверяется
// напрямую, остальное ищется в PATH.
func resolveCommand(command string) (string, error) {
	if filepath.IsAbs(command) {
		if _, err := os.Stat(command); err != nil {
			return "", fmt.Errorf("executable not found: %s", command)
		}
		return command, nil
	}
	return exec.LookPath(command)
}
