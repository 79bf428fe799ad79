package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/launchpad/internal/domain"
	"github.com/shaiso/launchpad/internal/engine"
	"github.com/shaiso/launchpad/internal/telemetry"
)

// DependencyPolicy — как зависимость влияет на запуск зависимой задачи.
type DependencyPolicy string

const (
	// PolicyOrdering — только порядок: зависимая задача запускается после
	// зависимости, даже если та упала.
	PolicyOrdering DependencyPolicy = "ordering"

	// PolicyGated — зависимая задача запускается, только если зависимость
	// подтверждена (или пропущена); иначе BLOCKED.
	PolicyGated DependencyPolicy = "gated"
)

// ParseDependencyPolicy парсит строку в DependencyPolicy (по умолчанию ordering).
func ParseDependencyPolicy(s string) DependencyPolicy {
	if DependencyPolicy(s) == PolicyGated {
		return PolicyGated
	}
	return PolicyOrdering
}

// Executor — исполнитель одной задачи (worker.Worker).
type Executor interface {
	Execute(ctx context.Context, task *domain.Task) domain.TaskOutcome
}

// Evaluator — оценка условий активации (engine.Evaluator).
type Evaluator interface {
	Evaluate(ctx context.Context, conds domain.Conditions) engine.Decision
}

// HistoryStore — хранилище истории run'ов (repo.Store).
type HistoryStore interface {
	Save(ctx context.Context, rec domain.RunRecord) error
}

// Notifier — уведомление пользователя об итоге run.
type Notifier interface {
	Notify(ctx context.Context, report *domain.RunReport) error
}

// Recorder — запись метрик run (telemetry.Metrics).
type Recorder interface {
	ObserveRun(report *domain.RunReport)
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Executor — исполнитель задач (обязателен для Run).
	Executor Executor

	// Evaluator — оценка условий (default: engine.NewEvaluator без сети).
	Evaluator Evaluator

	// History, Notifier, Metrics — опциональные получатели итогов run.
	History  HistoryStore
	Notifier Notifier
	Metrics  Recorder

	// Policy — политика зависимостей (default: ordering).
	Policy DependencyPolicy

	// Now — источник времени (default: time.Now).
	Now func() time.Time

	// Logger
	Logger *slog.Logger
}

// RunRequest — параметры одного run.
type RunRequest struct {
	// Tasks — задачи в порядке конфигурации.
	Tasks []domain.Task

	// Profile — имя профиля (для отчёта и истории).
	Profile string

	// Trigger — источник запуска: "cli", "schedule", "api".
	Trigger string

	// SkipGroups — группы, которые нужно пропустить.
	SkipGroups []string

	// OnlyGroups — если не пусто, запускаются только эти группы.
	OnlyGroups []string

	// DryRun — только решения по условиям и порядок, без запуска.
	DryRun bool
}

// Orchestrator проводит один run: фильтр по условиям → порядок → запуск.
//
// Между run'ами Orchestrator состояния не хранит: всё строится заново
// из переданного списка задач. Одновременно выполняется не больше одного run.
type Orchestrator struct {
	executor  Executor
	evaluator Evaluator
	history   HistoryStore
	notifier  Notifier
	metrics   Recorder
	policy    DependencyPolicy
	now       func() time.Time
	logger    *slog.Logger

	runMu  sync.Mutex
	active *RunState
	mu     sync.RWMutex
}

// New создаёт новый Orchestrator.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	evaluator := cfg.Evaluator
	if evaluator == nil {
		evaluator = engine.NewEvaluator(engine.EvaluatorConfig{Logger: logger})
	}

	policy := cfg.Policy
	if policy == "" {
		policy = PolicyOrdering
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Orchestrator{
		executor:  cfg.Executor,
		evaluator: evaluator,
		history:   cfg.History,
		notifier:  cfg.Notifier,
		metrics:   cfg.Metrics,
		policy:    policy,
		now:       now,
		logger:    logger,
	}
}

// Run выполняет run и возвращает упорядоченный отчёт.
//
// Ошибка возвращается только если конфигурация невалидна (ErrInvalidConfig)
// или уже идёт другой run (ErrRunInProgress); в обоих случаях ни одна
// задача не запускалась. Сбой отдельной задачи не прерывает run.
// Отмена ctx останавливает run: текущая задача получает FAILED(cancelled),
// остальные — CANCELLED.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (*domain.RunReport, error) {
	if !req.DryRun && o.executor == nil {
		return nil, ErrNoExecutor
	}

	if !o.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer o.runMu.Unlock()

	if err := engine.Validate(req.Tasks); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	report := &domain.RunReport{
		ID:        uuid.New(),
		Profile:   req.Profile,
		Trigger:   req.Trigger,
		DryRun:    req.DryRun,
		StartedAt: o.now(),
	}
	state := NewRunState(report)

	o.setActive(state)
	defer o.setActive(nil)

	logger := telemetry.WithRunID(o.logger, report.ID.String()).With("profile", req.Profile)
	ctx = telemetry.WithLogger(ctx, logger)
	logger.Info("run started", "tasks", len(req.Tasks), "trigger", req.Trigger, "dry_run", req.DryRun)

	// 1. Фильтр по enabled, группам и условиям в порядке конфигурации
	eligible := o.filterEligible(ctx, req, state, logger)

	// 2. Порядок запуска по подмножеству подходящих задач
	plan := engine.Order(eligible)
	var anomaly string
	if plan.Anomaly != nil {
		anomaly = plan.Anomaly.Error()
		logger.Warn("scheduling anomaly", "residual", plan.Anomaly.Residual)
	}
	state.SetPlan(plan.Order, anomaly)

	if req.DryRun {
		for i := range plan.Tasks {
			state.Record(domain.TaskOutcome{
				Task:   plan.Tasks[i].Name,
				Group:  plan.Tasks[i].Group,
				Status: domain.TaskStatusPending,
			})
		}
		state.Finish(o.now())
		logger.Info("dry run planned", "order", plan.Order)
		return report, nil
	}

	// 3. Запуск по одной задаче
	o.execute(ctx, plan.Tasks, state, logger)

	state.Finish(o.now())
	o.finish(ctx, report, logger)

	return report, nil
}

// Plan возвращает решения по условиям и порядок запуска без запуска задач.
func (o *Orchestrator) Plan(ctx context.Context, req RunRequest) (*domain.RunReport, error) {
	req.DryRun = true
	return o.Run(ctx, req)
}

// filterEligible проводит проход по условиям и записывает пропуски в отчёт.
func (o *Orchestrator) filterEligible(ctx context.Context, req RunRequest, state *RunState, logger *slog.Logger) []domain.Task {
	eligible := make([]domain.Task, 0, len(req.Tasks))

	for i := range req.Tasks {
		task := req.Tasks[i]

		skip := func(reason domain.SkipReason, detail string) {
			state.Record(domain.TaskOutcome{
				Task:       task.Name,
				Group:      task.Group,
				Status:     domain.TaskStatusSkipped,
				SkipReason: reason,
				Detail:     detail,
			})
		}

		if !task.Enabled {
			logger.Debug("task skipped: disabled", "task", task.Name)
			skip(domain.SkipDisabled, "")
			continue
		}

		if !groupAllowed(task.Group, req.SkipGroups, req.OnlyGroups) {
			logger.Info("task skipped: filtered by group", "task", task.Name, "group", task.Group)
			skip(domain.SkipFiltered, "group "+task.Group)
			continue
		}

		decision := o.evaluator.Evaluate(ctx, task.Conditions)
		if !decision.Eligible() {
			logger.Info("task skipped: conditions not met",
				"task", task.Name,
				"outcome", decision.Outcome.String(),
				"reason", decision.Reason,
			)
			skip(domain.SkipConditions, decision.Reason)
			continue
		}

		eligible = append(eligible, task)
	}

	return eligible
}

// execute запускает задачи строго по порядку, по одной.
func (o *Orchestrator) execute(ctx context.Context, tasks []domain.Task, state *RunState, logger *slog.Logger) {
	for i := range tasks {
		task := &tasks[i]

		if ctx.Err() != nil {
			o.cancelRemaining(tasks[i:], state, logger)
			return
		}

		if o.policy == PolicyGated {
			if dep := state.UnmetDependency(task); dep != "" {
				logger.Warn("task blocked: dependency not verified", "task", task.Name, "dependency", dep)
				state.Record(domain.TaskOutcome{
					Task:        task.Name,
					Group:       task.Group,
					Status:      domain.TaskStatusBlocked,
					FailureKind: domain.FailureBlocked,
					Error:       fmt.Sprintf("dependency %q not verified", dep),
				})
				continue
			}
		}

		state.Begin(task.Name)
		outcome := o.executor.Execute(ctx, task)
		state.Record(outcome)

		if outcome.FailureKind == domain.FailureCancelled || ctx.Err() != nil {
			o.cancelRemaining(tasks[i+1:], state, logger)
			return
		}
	}
}

// cancelRemaining помечает необработанные задачи как CANCELLED.
func (o *Orchestrator) cancelRemaining(tasks []domain.Task, state *RunState, logger *slog.Logger) {
	state.Cancel()

	for i := range tasks {
		state.Record(domain.TaskOutcome{
			Task:   tasks[i].Name,
			Group:  tasks[i].Group,
			Status: domain.TaskStatusCancelled,
			Error:  "run cancelled",
		})
	}
	logger.Warn("run cancelled", "remaining", len(tasks))
}

// finish сохраняет историю, пишет метрики и уведомляет.
// Сбои здесь только логируются: итог run уже известен.
func (o *Orchestrator) finish(ctx context.Context, report *domain.RunReport, logger *slog.Logger) {
	// Отменённый run тоже нужно сохранить.
	ctx = context.WithoutCancel(ctx)

	failures := report.Failures()
	logger.Info("run finished",
		"success", report.Success(),
		"duration", report.Duration().Round(time.Millisecond),
		"verified", report.Count(domain.TaskStatusVerified),
		"skipped", report.Count(domain.TaskStatusSkipped),
		"failed", len(failures),
		"cancelled", report.Cancelled,
	)
	for _, f := range failures {
		logger.Warn("task failure", "detail", f)
	}

	if o.metrics != nil {
		o.metrics.ObserveRun(report)
	}

	if o.history != nil {
		if err := o.history.Save(ctx, report.Record()); err != nil {
			logger.Error("failed to save run history", "error", err)
		}
	}

	if o.notifier != nil {
		if err := o.notifier.Notify(ctx, report); err != nil {
			logger.Warn("failed to send notification", "error", err)
		}
	}
}

// Active возвращает снимок выполняющегося run.
func (o *Orchestrator) Active() (domain.RunReport, string, bool) {
	o.mu.RLock()
	state := o.active
	o.mu.RUnlock()

	if state == nil {
		return domain.RunReport{}, "", false
	}
	report, current := state.Snapshot()
	return report, current, true
}

func (o *Orchestrator) setActive(state *RunState) {
	o.mu.Lock()
	o.active = state
	o.mu.Unlock()
}

// groupAllowed применяет фильтры групп: сначала only, затем skip.
func groupAllowed(group string, skip, only []string) bool {
	if len(only) > 0 && !contains(only, group) {
		return false
	}
	return !contains(skip, group)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
