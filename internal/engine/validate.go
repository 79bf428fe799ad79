package engine

import (
	"fmt"

	"github.com/shaiso/launchpad/internal/domain"
)

// Допустимые типы запуска.
var validTaskKinds = map[domain.TaskKind]bool{
	domain.TaskKindExec:    true,
	domain.TaskKindOpen:    true,
	domain.TaskKindBrowser: true,
}

// Validate выполняет полную валидацию списка задач перед run.
//
// Проверяет:
// - Непустые и уникальные имена
// - Известный тип запуска
// - Отсутствие зависимости от самой себя
// - Корректность health check и синтаксиса условий
// - Существование всех depends_on (по полному набору задач)
// - Отсутствие циклов (DFS со стеком, независимо от сортировки Кана)
func Validate(tasks []domain.Task) error {
	names := make(map[string]bool, len(tasks))

	for i := range tasks {
		if err := ValidateTask(&tasks[i], names); err != nil {
			return err
		}
	}

	if err := validateDependencies(tasks, names); err != nil {
		return err
	}

	return detectCycles(tasks)
}

// ValidateTask валидирует одну задачу.
// names — уже встреченные имена задач (для проверки уникальности).
func ValidateTask(task *domain.Task, names map[string]bool) error {
	if task.Name == "" {
		return NewValidationError("", "name", "task has empty name", ErrEmptyTaskName)
	}

	if names[task.Name] {
		return NewValidationError(task.Name, "name",
			fmt.Sprintf("duplicate task name: %s", task.Name), ErrDuplicateTask)
	}
	names[task.Name] = true

	if !validTaskKinds[task.Kind] {
		return NewValidationError(task.Name, "kind",
			fmt.Sprintf("unknown task kind: %q", task.Kind), ErrUnknownTaskKind)
	}

	for _, dep := range task.DependsOn {
		if dep == task.Name {
			return NewValidationError(task.Name, "depends_on",
				"task depends on itself", ErrSelfDependency)
		}
	}

	if err := validateHealthCheck(task); err != nil {
		return err
	}

	if err := ValidateConditions(task.Conditions); err != nil {
		return NewValidationError(task.Name, "conditions", err.Error(), err)
	}

	return nil
}

// validateHealthCheck проверяет описание health check.
func validateHealthCheck(task *domain.Task) error {
	hc := task.HealthCheck
	if hc == nil {
		return nil
	}

	if !hc.Method.IsValid() {
		return NewValidationError(task.Name, "health_check.method",
			fmt.Sprintf("unknown health check method: %q", hc.Method), ErrInvalidHealthCheck)
	}
	if hc.Method != domain.HealthMethodNone && hc.Pattern == "" {
		return NewValidationError(task.Name, "health_check.pattern",
			fmt.Sprintf("health check method %q requires a pattern", hc.Method), ErrInvalidHealthCheck)
	}
	if hc.Retries < 0 {
		return NewValidationError(task.Name, "health_check.retries",
			"retries must not be negative", ErrInvalidHealthCheck)
	}
	if hc.Timeout < 0 || hc.Settle < 0 {
		return NewValidationError(task.Name, "health_check",
			"timeout and settle must not be negative", ErrInvalidHealthCheck)
	}

	return nil
}

// validateDependencies проверяет, что все depends_on ссылаются на существующие задачи.
func validateDependencies(tasks []domain.Task, names map[string]bool) error {
	for i := range tasks {
		task := &tasks[i]
		for _, dep := range task.DependsOn {
			if !names[dep] {
				return &MissingDependencyError{Task: task.Name, Dependency: dep}
			}
		}
	}
	return nil
}

// Состояния обхода для поиска циклов.
const (
	unvisited = iota
	onStack
	done
)

// detectCycles ищет циклы обходом в глубину.
// Узел, повторно встреченный на активном стеке, означает цикл;
// уже полностью обойдённые узлы повторно не исследуются.
func detectCycles(tasks []domain.Task) error {
	deps := make(map[string][]string, len(tasks))
	for i := range tasks {
		deps[tasks[i].Name] = tasks[i].DependsOn
	}

	state := make(map[string]int, len(tasks))
	stack := make([]string, 0, len(tasks))

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case onStack:
			return &CircularDependencyError{Task: name, Cycle: cyclePath(stack, name)}
		case done:
			return nil
		}

		state[name] = onStack
		stack = append(stack, name)

		for _, dep := range deps[name] {
			if err := visit(dep); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		state[name] = done
		return nil
	}

	for i := range tasks {
		if err := visit(tasks[i].Name); err != nil {
			return err
		}
	}

	return nil
}

// cyclePath вырезает цикл из стека обхода: от первого вхождения name до вершины.
func cyclePath(stack []string, name string) []string {
	for i, n := range stack {
		if n == name {
			cycle := make([]string, 0, len(stack)-i+1)
			cycle = append(cycle, stack[i:]...)
			return append(cycle, name)
		}
	}
	return []string{name, name}
}

// IsValidTaskKind проверяет, является ли тип запуска допустимым.
func IsValidTaskKind(kind domain.TaskKind) bool {
	return validTaskKinds[kind]
}
