package worker

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"runtime"

	"github.com/cenkalti/backoff/v4"

	"github.com/shaiso/launchpad/internal/domain"
)

// OpenLauncher открывает папку, файл или URL системным обработчиком
// (xdg-open, open, explorer).
type OpenLauncher struct {
	// Opener — команда открытия; пусто — по платформе.
	Opener string
}

// Launch реализует Launcher. Цели: task.Path и task.URLs.
func (l *OpenLauncher) Launch(ctx context.Context, task *domain.Task) error {
	targets := make([]string, 0, 1+len(task.URLs))
	if task.Path != "" {
		targets = append(targets, task.Path)
	}
	targets = append(targets, task.URLs...)

	if len(targets) == 0 {
		return backoff.Permanent(fmt.Errorf("%w: open task %q has no path or urls", ErrInvalidTask, task.Name))
	}

	opener := l.Opener
	if opener == "" {
		opener = platformOpener()
	}

	for _, target := range targets {
		if !isURL(target) {
			if _, err := os.Stat(target); err != nil {
				return fmt.Errorf("%w: %s does not exist", ErrLaunchFailed, target)
			}
		}

		cmd := exec.Command(opener, target)
		detach(cmd)
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("%w: %s %s: %v", ErrLaunchFailed, opener, target, err)
		}
		go func() { _ = cmd.Wait() }()
	}

	return nil
}

// platformOpener возвращает системную команду открытия.
func platformOpener() string {
	switch runtime.GOOS {
	case "windows":
		return "explorer"
	case "darwin":
		return "open"
	default:
		return "xdg-open"
	}
}

// isURL отличает URL со схемой от локального пути.
func isURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	// Буква диска Windows ("C:\...") парсится как схема из одного символа.
	return len(u.Scheme) > 1 && (u.Host != "" || u.Opaque != "")
}
