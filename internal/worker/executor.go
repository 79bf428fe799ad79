package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/launchpad/internal/domain"
)

// Launcher — способ запустить задачу конкретного типа.
//
// Launch должен вернуться, как только процесс/действие стартовало:
// запущенное приложение переживает run.
type Launcher interface {
	Launch(ctx context.Context, task *domain.Task) error
}

// Prober — проверка готовности задачи после запуска.
//
// Реализация выбирает probe по hc.Method; ctx несёт таймаут проверки.
type Prober interface {
	Probe(ctx context.Context, hc domain.HealthCheck) (bool, error)
}

// Registry — реестр launcher'ов по типу задачи.
type Registry struct {
	launchers map[domain.TaskKind]Launcher
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{launchers: make(map[domain.TaskKind]Launcher)}
}

// NewHostRegistry создаёт реестр с launcher'ами хост-системы.
//
// Регистрирует: exec, open, browser.
func NewHostRegistry(logger *slog.Logger) *Registry {
	r := NewRegistry()
	r.Register(domain.TaskKindExec, &ExecLauncher{})
	r.Register(domain.TaskKindOpen, &OpenLauncher{})
	r.Register(domain.TaskKindBrowser, NewBrowserLauncher(logger))
	return r
}

// Register добавляет launcher для типа задачи.
func (r *Registry) Register(kind domain.TaskKind, launcher Launcher) {
	r.launchers[kind] = launcher
}

// Get возвращает launcher для типа задачи.
func (r *Registry) Get(kind domain.TaskKind) (Launcher, error) {
	launcher, ok := r.launchers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTaskKind, kind)
	}
	return launcher, nil
}
