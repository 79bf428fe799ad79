package worker

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultRetryInterval — пауза между попытками по умолчанию.
const DefaultRetryInterval = 2 * time.Second

// Стратегии backoff.
const (
	BackoffFixed       = "fixed"
	BackoffExponential = "exponential"
)

// RetryPolicy — политика повторов, применяемая исполнителем ко всем задачам.
type RetryPolicy struct {
	// MaxAttempts — жёсткий бюджет попыток. 0 — брать из задачи
	// (health_check.retries + 1).
	MaxAttempts int

	// NewBackOff создаёт свежий backoff на каждую задачу.
	NewBackOff func() backoff.BackOff

	// Retryable решает, стоит ли повторять после ошибки.
	Retryable func(error) bool

	// OnRetry вызывается перед каждой паузой между попытками.
	OnRetry func(task string, attempt int, err error)
}

// DefaultRetryPolicy — фиксированная пауза 2s, стандартный предикат.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		NewBackOff: FixedBackOff(DefaultRetryInterval),
		Retryable:  IsRetryable,
	}
}

// NewRetryPolicy собирает политику из настроек: стратегия и базовая пауза.
func NewRetryPolicy(strategy string, interval time.Duration) RetryPolicy {
	if interval < 0 {
		interval = 0
	}
	policy := DefaultRetryPolicy()
	switch strategy {
	case BackoffExponential:
		policy.NewBackOff = ExponentialBackOff(interval, 2.0, 30*time.Second)
	default:
		policy.NewBackOff = FixedBackOff(interval)
	}
	return policy
}

// FixedBackOff возвращает фабрику постоянной паузы.
func FixedBackOff(d time.Duration) func() backoff.BackOff {
	return func() backoff.BackOff {
		if d <= 0 {
			return &backoff.ZeroBackOff{}
		}
		return backoff.NewConstantBackOff(d)
	}
}

// ExponentialBackOff возвращает фабрику экспоненциальной паузы без джиттера:
// initial, initial*multiplier, ... не больше maxInterval, без ограничения по времени.
func ExponentialBackOff(initial time.Duration, multiplier float64, maxInterval time.Duration) func() backoff.BackOff {
	return func() backoff.BackOff {
		if initial <= 0 {
			return &backoff.ZeroBackOff{}
		}
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = initial
		b.Multiplier = multiplier
		b.RandomizationFactor = 0
		b.MaxInterval = maxInterval
		b.MaxElapsedTime = 0
		b.Reset()
		return b
	}
}

// IsRetryable — предикат по умолчанию.
//
// Не повторяются: отмена контекста, неизвестный тип задачи,
// неполное описание задачи и ошибки, помеченные backoff.Permanent.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrUnknownTaskKind) || errors.Is(err, ErrInvalidTask) || errors.Is(err, ErrNoProber) {
		return false
	}
	var permanent *backoff.PermanentError
	return !errors.As(err, &permanent)
}

// maxAttempts вычисляет бюджет попыток для задачи.
func (p RetryPolicy) maxAttempts(taskBudget int) int {
	if p.MaxAttempts > 0 {
		return p.MaxAttempts
	}
	if taskBudget < 1 {
		return 1
	}
	return taskBudget
}

// backOff создаёт backoff для новой задачи.
func (p RetryPolicy) backOff() backoff.BackOff {
	if p.NewBackOff == nil {
		return backoff.NewConstantBackOff(DefaultRetryInterval)
	}
	return p.NewBackOff()
}

// retryable применяет предикат политики.
func (p RetryPolicy) retryable(err error) bool {
	if p.Retryable == nil {
		return IsRetryable(err)
	}
	return p.Retryable(err)
}

// sleep ждёт d с учётом отмены контекста.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
