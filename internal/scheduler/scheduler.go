package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/launchpad/internal/domain"
	"github.com/shaiso/launchpad/internal/orchestrator"
)

// TriggerSchedule — источник run'ов, запущенных по расписанию.
const TriggerSchedule = "schedule"

// Runner выполняет run (orchestrator.Orchestrator).
type Runner interface {
	Run(ctx context.Context, req orchestrator.RunRequest) (*domain.RunReport, error)
}

// RequestFunc возвращает запрос на run по текущей конфигурации.
// Вызывается на каждом срабатывании, поэтому перезагрузка конфигурации
// подхватывается без перезапуска планировщика.
type RequestFunc func() (orchestrator.RunRequest, error)

// Scheduler запускает run по cron-расписанию.
type Scheduler struct {
	runner   Runner
	request  RequestFunc
	schedule cron.Schedule
	expr     string
	logger   *slog.Logger

	mu      sync.Mutex
	lastRun time.Time
}

// Config — конфигурация Scheduler.
type Config struct {
	// Schedule — cron-выражение (например "0 9 * * 1-5" или "@every 1h").
	Schedule string

	// Runner выполняет run.
	Runner Runner

	// Request строит запрос на run.
	Request RequestFunc

	// Logger
	Logger *slog.Logger
}

// New создаёт Scheduler. Возвращает ошибку для некорректного расписания.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Runner == nil || cfg.Request == nil {
		return nil, errors.New("scheduler: runner and request are required")
	}

	schedule, err := ParseSchedule(cfg.Schedule)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		runner:   cfg.Runner,
		request:  cfg.Request,
		schedule: schedule,
		expr:     cfg.Schedule,
		logger:   logger,
	}, nil
}

// Tick выполняет один запланированный run.
//
// Если run уже идёт (ручной запуск или API), срабатывание пропускается.
// Ошибки run не фатальны для планировщика.
func (s *Scheduler) Tick(ctx context.Context) error {
	req, err := s.request()
	if err != nil {
		return fmt.Errorf("build run request: %w", err)
	}
	req.Trigger = TriggerSchedule

	report, err := s.runner.Run(ctx, req)
	if err != nil {
		if errors.Is(err, orchestrator.ErrRunInProgress) {
			s.logger.Warn("scheduled run skipped, another run in progress")
			return nil
		}
		return fmt.Errorf("scheduled run: %w", err)
	}

	s.mu.Lock()
	s.lastRun = report.StartedAt
	s.mu.Unlock()

	s.logger.Info("scheduled run completed",
		"run_id", report.ID,
		"success", report.Success(),
		"next_run", s.Next(time.Now()),
	)
	return nil
}

// Start запускает cron и блокируется до отмены ctx.
// Выход дожидается завершения текущего run.
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	c.Schedule(s.schedule, cron.FuncJob(func() {
		if err := s.Tick(ctx); err != nil {
			s.logger.Error("scheduler tick failed", "error", err)
		}
	}))

	c.Start()
	s.logger.Info("scheduler started", "schedule", s.expr, "next_run", s.Next(time.Now()))

	<-ctx.Done()

	stopCtx := c.Stop()
	<-stopCtx.Done()

	s.logger.Info("scheduler stopped")
	return nil
}

// Next возвращает ближайшее срабатывание после from.
func (s *Scheduler) Next(from time.Time) time.Time {
	return s.schedule.Next(from)
}

// LastRun возвращает время начала последнего запланированного run.
func (s *Scheduler) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

// Expr возвращает исходное выражение расписания.
func (s *Scheduler) Expr() string {
	return s.expr
}
