package domain

// TaskStatus — статус задачи в рамках одного run.
//
// Жизненный цикл:
//
//	PENDING → SKIPPED
//	        → LAUNCHING → VERIFYING → VERIFIED
//	                    ↘ FAILED (attempt < N → обратно в LAUNCHING)
//	        → BLOCKED   (политика gated, зависимость не подтверждена)
//	        → CANCELLED (run отменён до начала задачи)
type TaskStatus string

const (
	// TaskStatusPending — задача ждёт своей очереди.
	TaskStatusPending TaskStatus = "PENDING"

	// TaskStatusSkipped — задача выключена, отфильтрована или условия не выполнены.
	TaskStatusSkipped TaskStatus = "SKIPPED"

	// TaskStatusLaunching — идёт попытка запуска.
	TaskStatusLaunching TaskStatus = "LAUNCHING"

	// TaskStatusVerifying — запуск прошёл, ждём health check.
	TaskStatusVerifying TaskStatus = "VERIFYING"

	// TaskStatusVerified — задача запущена и (если требуется) подтверждена.
	TaskStatusVerified TaskStatus = "VERIFIED"

	// TaskStatusFailed — бюджет попыток исчерпан или run отменён во время задачи.
	TaskStatusFailed TaskStatus = "FAILED"

	// TaskStatusBlocked — зависимость не подтверждена, задача не запускалась.
	TaskStatusBlocked TaskStatus = "BLOCKED"

	// TaskStatusCancelled — run отменён раньше, чем очередь дошла до задачи.
	TaskStatusCancelled TaskStatus = "CANCELLED"
)

// IsTerminal возвращает true, если статус финальный.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusSkipped, TaskStatusVerified, TaskStatusFailed, TaskStatusBlocked, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// CountsAsFailure возвращает true для статусов, которые ломают общий успех run.
// SKIPPED не считается ни успехом, ни неудачей.
func (s TaskStatus) CountsAsFailure() bool {
	switch s {
	case TaskStatusFailed, TaskStatusBlocked, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// taskTransitions — допустимые переходы между статусами.
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusPending:   {TaskStatusSkipped, TaskStatusLaunching, TaskStatusBlocked, TaskStatusCancelled},
	TaskStatusLaunching: {TaskStatusVerifying, TaskStatusVerified, TaskStatusFailed, TaskStatusLaunching},
	TaskStatusVerifying: {TaskStatusVerified, TaskStatusFailed, TaskStatusLaunching},
}

// CanTransition проверяет, допустим ли переход из s в next.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	for _, allowed := range taskTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// FailureKind — причина неудачи задачи.
type FailureKind string

const (
	// FailureLaunch — задача так и не запустилась.
	FailureLaunch FailureKind = "launch"

	// FailureHealth — задача запущена, но не подтверждена health check'ом.
	FailureHealth FailureKind = "health"

	// FailureCancelled — run отменён во время выполнения задачи.
	FailureCancelled FailureKind = "cancelled"

	// FailureBlocked — зависимость не подтверждена (политика gated).
	FailureBlocked FailureKind = "blocked"
)

// SkipReason — причина пропуска задачи.
type SkipReason string

const (
	// SkipDisabled — задача выключена в конфигурации.
	SkipDisabled SkipReason = "disabled"

	// SkipFiltered — задача отсечена фильтром групп.
	SkipFiltered SkipReason = "filtered"

	// SkipConditions — условия активации не выполнены.
	SkipConditions SkipReason = "conditions"
)
