package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"

	"github.com/shaiso/launchpad/internal/domain"
)

// LogSink пишет уведомление в журнал.
type LogSink struct {
	Logger *slog.Logger
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Send(_ context.Context, msg Message, report *domain.RunReport) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []any{"title", msg.Title, "body", msg.Body}
	if report != nil {
		attrs = append(attrs, "run_id", report.ID)
	}

	switch msg.Level {
	case LevelError:
		logger.Error("notification", attrs...)
	case LevelWarning:
		logger.Warn("notification", attrs...)
	default:
		logger.Info("notification", attrs...)
	}
	return nil
}

// Runner запускает внешнюю команду.
type Runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// DesktopSink показывает системное уведомление:
// notify-send (Linux), osascript (macOS), toast через PowerShell (Windows).
type DesktopSink struct {
	// GOOS — платформа (default: runtime.GOOS).
	GOOS string

	// Run — запуск команды (default: os/exec).
	Run Runner
}

func (s *DesktopSink) Name() string { return "desktop" }

func (s *DesktopSink) Send(ctx context.Context, msg Message, _ *domain.RunReport) error {
	run := s.Run
	if run == nil {
		run = execRunner
	}
	goos := s.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	name, args := desktopCommand(goos, msg)
	return run(ctx, name, args...)
}

// desktopCommand возвращает команду уведомления для платформы.
func desktopCommand(goos string, msg Message) (string, []string) {
	switch goos {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", msg.Body, msg.Title)
		return "osascript", []string{"-e", script}
	case "windows":
		return "powershell", []string{"-NoProfile", "-Command", toastScript(msg)}
	default:
		urgency := "normal"
		if msg.Level == LevelError {
			urgency = "critical"
		}
		return "notify-send", []string{"--app-name=launchpad", "--urgency=" + urgency, msg.Title, msg.Body}
	}
}

func toastScript(msg Message) string {
	escape := func(s string) string {
		r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "'", "''")
		return r.Replace(s)
	}
	return `[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
$xml = New-Object Windows.Data.Xml.Dom.XmlDocument
$xml.LoadXml('<toast><visual><binding template="ToastText02"><text id="1">` + escape(msg.Title) +
		`</text><text id="2">` + escape(msg.Body) + `</text></binding></visual></toast>')
[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier('launchpad').Show((New-Object Windows.UI.Notifications.ToastNotification $xml))`
}
