// Package worker запускает отдельные задачи и подтверждает их готовность.
//
// # Обзор
//
// Worker проводит одну задачу через цикл:
//
//	PENDING → LAUNCHING → VERIFYING → VERIFIED
//	                    ↘ FAILED (attempt < N → снова LAUNCHING после паузы)
//
// Выключенная задача сразу получает SKIPPED и не тратит попыток.
// Решение по условиям активации принимает orchestrator до вызова Worker.
//
// # Ключевые компоненты
//
// ## Launcher
//
// Интерфейс запуска конкретного типа задачи:
//
//	type Launcher interface {
//	    Launch(ctx context.Context, task *domain.Task) error
//	}
//
// Реализации:
//   - ExecLauncher — отдельный процесс в собственной группе процессов
//   - OpenLauncher — папка/файл/URL через xdg-open, open или explorer
//   - BrowserLauncher — Chromium через go-rod с постоянным профилем
//
// ## Prober
//
// Проверка готовности по domain.HealthCheck. Реализация по умолчанию —
// probe.Set (window_title, port, process, http).
//
// # Retry
//
// RetryPolicy задаёт бюджет попыток, фабрику backoff (cenkalti/backoff)
// и предикат, отделяющий повторяемые ошибки от фатальных. Бюджет по
// умолчанию — health_check.retries + 1, пауза — 2s.
//
// Стратегии backoff:
//   - "fixed": постоянная пауза
//   - "exponential": пауза * 2^(attempt-1), не больше 30s
//
// # Отмена
//
// Паузы между попытками и перед health check прерываются отменой ctx;
// задача тогда завершается как FAILED с FailureKind=cancelled.
package worker
