package worker

import "errors"

// Ошибки исполнителя задач.
var (
	// ErrUnknownTaskKind — нет launcher'а для данного типа задачи.
	ErrUnknownTaskKind = errors.New("unknown task kind")

	// ErrInvalidTask — у задачи не хватает полей для запуска.
	ErrInvalidTask = errors.New("invalid task descriptor")

	// ErrLaunchFailed — запуск завершился ошибкой.
	ErrLaunchFailed = errors.New("launch failed")

	// ErrNotReady — health check вернул false.
	ErrNotReady = errors.New("health check did not pass")

	// ErrNoProber — health check настроен, но probe не подключён.
	ErrNoProber = errors.New("no health prober configured")
)

// LaunchError — ошибка попытки запуска.
type LaunchError struct {
	Err error
}

// Error реализует интерфейс error.
func (e *LaunchError) Error() string {
	return "launch: " + e.Err.Error()
}

// Unwrap возвращает базовую ошибку.
func (e *LaunchError) Unwrap() error {
	return e.Err
}

// HealthError — задача запущена, но health check не подтвердил готовность.
type HealthError struct {
	Err error
}

// Error реализует интерфейс error.
func (e *HealthError) Error() string {
	return "health check: " + e.Err.Error()
}

// Unwrap возвращает базовую ошибку.
func (e *HealthError) Unwrap() error {
	return e.Err
}
