package notify

import (
	"fmt"

	"github.com/shaiso/launchpad/internal/domain"
)

// Level — важность уведомления.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Message — уведомление для пользователя.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Level Level  `json:"level"`
}

// ForReport строит уведомление по итогам run.
func ForReport(report *domain.RunReport) Message {
	switch {
	case report.Cancelled:
		return Message{Title: "Startup Warning", Body: "Startup cancelled", Level: LevelWarning}
	case report.Success():
		return Message{
			Title: "Startup Complete",
			Body:  fmt.Sprintf("All systems ready in %.0fs", report.Duration().Seconds()),
			Level: LevelSuccess,
		}
	default:
		return Message{
			Title: "Startup Warning",
			Body:  fmt.Sprintf("Completed with %d error(s)", len(report.Failures())),
			Level: LevelWarning,
		}
	}
}

// ForError строит уведомление о фатальной ошибке (например, конфигурации).
func ForError(err error) Message {
	return Message{Title: "Startup Error", Body: err.Error(), Level: LevelError}
}
