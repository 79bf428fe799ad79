package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shaiso/launchpad/internal/domain"
)

// Sink — получатель уведомлений.
type Sink interface {
	// Name — имя для журнала ("log", "desktop", ...).
	Name() string

	// Send доставляет сообщение. report равен nil для ошибок вне run.
	Send(ctx context.Context, msg Message, report *domain.RunReport) error
}

// Notifier рассылает уведомления по всем sink'ам.
// Реализует orchestrator.Notifier.
type Notifier struct {
	sinks   []Sink
	enabled bool
	logger  *slog.Logger
}

// Config — конфигурация Notifier.
type Config struct {
	// Enabled — false отключает все sink'и.
	Enabled bool

	// Sinks — получатели.
	Sinks []Sink

	// Logger
	Logger *slog.Logger
}

// New создаёт Notifier.
func New(cfg Config) *Notifier {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		sinks:   cfg.Sinks,
		enabled: cfg.Enabled,
		logger:  logger,
	}
}

// Notify отправляет уведомление об итогах run.
// Dry run не уведомляет.
func (n *Notifier) Notify(ctx context.Context, report *domain.RunReport) error {
	if report == nil || report.DryRun {
		return nil
	}
	return n.send(ctx, ForReport(report), report)
}

// NotifyError отправляет уведомление о фатальной ошибке.
func (n *Notifier) NotifyError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return n.send(ctx, ForError(err), nil)
}

// send доставляет сообщение всем sink'ам; сбой одного не мешает остальным.
func (n *Notifier) send(ctx context.Context, msg Message, report *domain.RunReport) error {
	if n == nil || !n.enabled {
		return nil
	}

	var errs []error
	for _, s := range n.sinks {
		if err := s.Send(ctx, msg, report); err != nil {
			n.logger.Warn("notification sink failed", "sink", s.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Sinks возвращает имена подключённых sink'ов.
func (n *Notifier) Sinks() []string {
	names := make([]string, len(n.sinks))
	for i, s := range n.sinks {
		names[i] = s.Name()
	}
	return names
}
