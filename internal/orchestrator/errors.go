package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrInvalidConfig — список задач не прошёл валидацию; run не начинался.
	ErrInvalidConfig = errors.New("invalid task configuration")

	// ErrRunInProgress — другой run ещё выполняется.
	ErrRunInProgress = errors.New("another run is in progress")

	// ErrNoExecutor — оркестратор создан без исполнителя задач.
	ErrNoExecutor = errors.New("no task executor configured")
)
