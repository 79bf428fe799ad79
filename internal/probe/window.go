package probe

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
)

// WindowProbe проверяет, что открыто окно с заголовком, подходящим под pattern.
//
// Pattern — регулярное выражение без учёта регистра; если оно не
// компилируется, используется поиск подстроки.
type WindowProbe struct {
	// List — источник заголовков окон.
	List func(ctx context.Context) ([]string, error)
}

// NewWindowProbe создаёт WindowProbe для текущей платформы.
func NewWindowProbe() *WindowProbe {
	return &WindowProbe{List: windowTitles}
}

// Check реализует Probe.
func (p *WindowProbe) Check(ctx context.Context, pattern string) (bool, error) {
	list := p.List
	if list == nil {
		list = windowTitles
	}

	titles, err := list(ctx)
	if err != nil {
		return false, fmt.Errorf("window probe: %w", err)
	}

	match := titleMatcher(pattern)
	for _, title := range titles {
		if match(title) {
			return true, nil
		}
	}
	return false, nil
}

// titleMatcher строит функцию сравнения заголовка с pattern.
func titleMatcher(pattern string) func(string) bool {
	if re, err := regexp.Compile("(?i)" + pattern); err == nil {
		return re.MatchString
	}
	lower := strings.ToLower(pattern)
	return func(title string) bool {
		return strings.Contains(strings.ToLower(title), lower)
	}
}

// windowTitles получает заголовки окон через системную утилиту:
// wmctrl (Linux), osascript (macOS), PowerShell (Windows).
func windowTitles(ctx context.Context) ([]string, error) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.CommandContext(ctx, "powershell", "-NoProfile", "-Command",
			"Get-Process | Where-Object { $_.MainWindowTitle } | ForEach-Object { $_.MainWindowTitle }")
	case "darwin":
		cmd = exec.CommandContext(ctx, "osascript", "-e",
			`tell application "System Events" to get name of every window of every process`)
	default:
		cmd = exec.CommandContext(ctx, "wmctrl", "-l")
	}

	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}
	return parseWindowList(runtime.GOOS, string(out)), nil
}

// parseWindowList разбирает вывод утилиты в список заголовков.
func parseWindowList(goos, out string) []string {
	var titles []string
	switch goos {
	case "darwin":
		for _, t := range strings.Split(out, ",") {
			if t = strings.TrimSpace(t); t != "" && t != "missing value" {
				titles = append(titles, t)
			}
		}
	case "windows":
		for _, line := range strings.Split(out, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				titles = append(titles, line)
			}
		}
	default:
		// wmctrl -l: "<id> <desktop> <host> <title...>"
		for _, line := range strings.Split(out, "\n") {
			fields := strings.Fields(line)
			if len(fields) < 4 {
				continue
			}
			titles = append(titles, strings.Join(fields[3:], " "))
		}
	}
	return titles
}
