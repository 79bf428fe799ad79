package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/shaiso/launchpad/internal/domain"
	"github.com/shaiso/launchpad/internal/telemetry"
)

// Default configuration values.
const (
	defaultProbeTimeout = 10 * time.Second
)

// Worker — исполнитель задач: запуск → пауза → health check → повтор.
//
// Worker не хранит состояния между задачами: каждый вызов Execute
// начинает с чистого бюджета попыток и нового backoff.
type Worker struct {
	registry *Registry
	prober   Prober
	policy   RetryPolicy
	now      func() time.Time
	logger   *slog.Logger
}

// Config — конфигурация Worker.
type Config struct {
	// Registry — launcher'ы по типу задачи (обязателен).
	Registry *Registry

	// Prober — health check'и (опционально; без него задачи
	// с health check завершаются ошибкой).
	Prober Prober

	// Policy — политика повторов (если NewBackOff == nil — DefaultRetryPolicy).
	Policy RetryPolicy

	// Now — источник времени для отметок в отчёте (default: time.Now).
	Now func() time.Time

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	registry := cfg.Registry
	if registry == nil {
		registry = NewRegistry()
	}

	policy := cfg.Policy
	if policy.NewBackOff == nil {
		defaults := DefaultRetryPolicy()
		policy.NewBackOff = defaults.NewBackOff
		if policy.Retryable == nil {
			policy.Retryable = defaults.Retryable
		}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		registry: registry,
		prober:   cfg.Prober,
		policy:   policy,
		now:      now,
		logger:   logger,
	}
}

// Execute проводит задачу через полный цикл и возвращает итог.
//
// Выключенная задача сразу получает SKIPPED без попыток. Для включённой
// бюджет попыток = health_check.retries + 1. Ошибка запуска или
// неподтверждённый health check повторяются после паузы, пока бюджет
// не исчерпан. Отмена ctx во время паузы завершает задачу как
// FAILED(cancelled). Execute не возвращает ошибок: всё попадает в TaskOutcome.
func (w *Worker) Execute(ctx context.Context, task *domain.Task) (out domain.TaskOutcome) {
	out = domain.TaskOutcome{
		Task:   task.Name,
		Group:  task.Group,
		Status: domain.TaskStatusPending,
	}

	if !task.Enabled {
		out.Status = domain.TaskStatusSkipped
		out.SkipReason = domain.SkipDisabled
		return out
	}

	logger := telemetry.WithTask(telemetry.FromContext(ctx, w.logger), task.Name).With("kind", task.Kind)

	started := w.now()
	out.StartedAt = &started
	defer func() {
		finished := w.now()
		out.FinishedAt = &finished
	}()

	launcher, err := w.registry.Get(task.Kind)
	if err != nil {
		out.Attempts = 1
		w.fail(&out, &LaunchError{Err: err}, logger)
		return out
	}

	maxAttempts := w.policy.maxAttempts(task.MaxAttempts())
	bo := backoff.WithContext(w.policy.backOff(), ctx)

	for attempt := 1; ; attempt++ {
		out.Attempts = attempt
		transition(&out, domain.TaskStatusLaunching, logger)

		logger.Info("launching task", "attempt", attempt, "max_attempts", maxAttempts)

		err := w.attempt(ctx, launcher, task, &out, logger)
		if err == nil {
			transition(&out, domain.TaskStatusVerified, logger)
			out.Verified = true
			out.Error = ""
			logger.Info("task verified", "attempt", attempt)
			return out
		}

		if isCancellation(ctx, err) {
			w.fail(&out, err, logger)
			return out
		}

		if attempt >= maxAttempts || !w.policy.retryable(err) {
			w.fail(&out, err, logger)
			return out
		}

		delay := bo.NextBackOff()
		if delay == backoff.Stop {
			if ctx.Err() != nil {
				w.fail(&out, ctx.Err(), logger)
			} else {
				w.fail(&out, err, logger)
			}
			return out
		}

		logger.Warn("attempt failed, retrying",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"delay", delay,
			"error", err,
		)

		if w.policy.OnRetry != nil {
			w.policy.OnRetry(task.Name, attempt, err)
		}

		if err := sleep(ctx, delay); err != nil {
			w.fail(&out, err, logger)
			return out
		}
	}
}

// attempt выполняет одну попытку: запуск, пауза, проверка.
// nil означает, что задача подтверждена.
func (w *Worker) attempt(ctx context.Context, launcher Launcher, task *domain.Task, out *domain.TaskOutcome, logger *slog.Logger) error {
	if err := launcher.Launch(ctx, task); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &LaunchError{Err: err}
	}
	out.Launched = true

	if !task.HasHealthCheck() {
		return nil
	}

	hc := *task.HealthCheck
	transition(out, domain.TaskStatusVerifying, logger)

	if hc.Settle > 0 {
		logger.Debug("waiting before health check", "settle", hc.Settle)
		if err := sleep(ctx, hc.Settle); err != nil {
			return err
		}
	}

	if w.prober == nil {
		return &HealthError{Err: ErrNoProber}
	}

	timeout := hc.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ok, err := w.prober.Probe(probeCtx, hc)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return &HealthError{Err: err}
	}
	if !ok {
		return &HealthError{Err: ErrNotReady}
	}

	return nil
}

// fail переводит задачу в FAILED и определяет вид неудачи.
func (w *Worker) fail(out *domain.TaskOutcome, err error, logger *slog.Logger) {
	out.Status = domain.TaskStatusFailed
	out.Verified = false
	out.Error = err.Error()

	var healthErr *HealthError
	var launchErr *LaunchError
	switch {
	case errors.As(err, &healthErr):
		out.FailureKind = domain.FailureHealth
	case errors.As(err, &launchErr):
		out.FailureKind = domain.FailureLaunch
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		out.FailureKind = domain.FailureCancelled
		out.Error = "cancelled: " + err.Error()
	default:
		out.FailureKind = domain.FailureLaunch
	}

	logger.Error("task failed",
		"attempts", out.Attempts,
		"launched", out.Launched,
		"failure", out.FailureKind,
		"error", err,
	)
}

// isCancellation проверяет, что ошибка вызвана отменой run.
func isCancellation(ctx context.Context, err error) bool {
	if ctx.Err() == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// transition меняет статус задачи, логируя недопустимые переходы.
func transition(out *domain.TaskOutcome, next domain.TaskStatus, logger *slog.Logger) {
	if out.Status != next && !out.Status.CanTransition(next) {
		logger.Debug("unexpected status transition", "from", out.Status, "to", next)
	}
	out.Status = next
}
