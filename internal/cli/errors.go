package cli

import (
	"errors"

	"github.com/shaiso/launchpad/internal/config"
	"github.com/shaiso/launchpad/internal/orchestrator"
)

// Коды выхода.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitConfigErr = 2
)

// ErrRunFailed — run завершён, но не все задачи подтверждены.
var ErrRunFailed = errors.New("run completed with errors")

// ExitCode возвращает код выхода для ошибки команды:
// 2 для ошибок конфигурации, 1 для остальных.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, config.ErrConfig), errors.Is(err, orchestrator.ErrInvalidConfig):
		return ExitConfigErr
	default:
		return ExitFailure
	}
}
