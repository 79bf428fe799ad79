package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Ошибки валидации списка задач.
var (
	// ErrEmptyTaskName — задача без имени.
	ErrEmptyTaskName = errors.New("task has empty name")

	// ErrDuplicateTask — несколько задач с одинаковым именем.
	ErrDuplicateTask = errors.New("duplicate task name")

	// ErrUnknownTaskKind — неизвестный тип запуска.
	ErrUnknownTaskKind = errors.New("unknown task kind")

	// ErrMissingDependency — задача зависит от несуществующей задачи.
	ErrMissingDependency = errors.New("depends on non-existent task")

	// ErrCyclicDependency — обнаружен цикл в зависимостях.
	ErrCyclicDependency = errors.New("circular dependency detected")

	// ErrSelfDependency — задача зависит от самой себя (цикл длины один).
	ErrSelfDependency = fmt.Errorf("task depends on itself: %w", ErrCyclicDependency)

	// ErrInvalidHealthCheck — некорректное описание health check.
	ErrInvalidHealthCheck = errors.New("invalid health check")
)

// Ошибки условий активации.
var (
	// ErrInvalidCondition — синтаксически неверная спецификация условия.
	ErrInvalidCondition = errors.New("invalid condition")

	// ErrUnknownCondition — нераспознанный ключ условия.
	ErrUnknownCondition = errors.New("unknown condition")

	// ErrNetworkUnknown — текущую сеть определить не удалось.
	ErrNetworkUnknown = errors.New("current network unknown")
)

// ValidationError — ошибка валидации с контекстом.
type ValidationError struct {
	Task    string // имя задачи, где произошла ошибка
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.Task != "" {
		return "task " + e.Task + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(task, field, message string, err error) *ValidationError {
	return &ValidationError{
		Task:    task,
		Field:   field,
		Message: message,
		Err:     err,
	}
}

// MissingDependencyError — ссылка depends_on на отсутствующую задачу.
type MissingDependencyError struct {
	Task       string // задача с зависимостью
	Dependency string // отсутствующая задача
}

// Error реализует интерфейс error.
func (e *MissingDependencyError) Error() string {
	return "task '" + e.Task + "' depends on non-existent task '" + e.Dependency + "'"
}

// Unwrap возвращает ErrMissingDependency.
func (e *MissingDependencyError) Unwrap() error {
	return ErrMissingDependency
}

// CircularDependencyError — цикл в графе зависимостей.
type CircularDependencyError struct {
	// Task — задача, на которой обнаружен повторный вход в стек.
	Task string

	// Cycle — путь цикла, первый и последний элементы совпадают.
	Cycle []string
}

// Error реализует интерфейс error.
func (e *CircularDependencyError) Error() string {
	if len(e.Cycle) == 0 {
		return "circular dependency detected involving '" + e.Task + "'"
	}
	return "circular dependency detected: " + strings.Join(e.Cycle, " -> ")
}

// Unwrap возвращает ErrCyclicDependency.
func (e *CircularDependencyError) Unwrap() error {
	return ErrCyclicDependency
}

// SchedulingAnomaly — после топологической сортировки остались задачи.
// Не фатальна: задачи дописываются в конец в исходном порядке.
type SchedulingAnomaly struct {
	Residual []string
}

// Error реализует интерфейс error.
func (e *SchedulingAnomaly) Error() string {
	return "scheduling anomaly: unordered tasks appended in input order: " + strings.Join(e.Residual, ", ")
}
