package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskOutcome — итог выполнения одной задачи в run.
type TaskOutcome struct {
	// Task — имя задачи.
	Task string `json:"task"`

	// Group — группа задачи (копия Task.Group).
	Group string `json:"group,omitempty"`

	// Status — финальный статус.
	Status TaskStatus `json:"status"`

	// Launched — хотя бы одна попытка запуска прошла успешно.
	Launched bool `json:"launched"`

	// Verified — задача подтверждена (или health check не настроен).
	Verified bool `json:"verified"`

	// Attempts — израсходованные попытки.
	Attempts int `json:"attempts"`

	// Error — текст последней ошибки.
	Error string `json:"error,omitempty"`

	// FailureKind — вид неудачи (только для FAILED/BLOCKED).
	FailureKind FailureKind `json:"failure_kind,omitempty"`

	// SkipReason — причина пропуска (только для SKIPPED).
	SkipReason SkipReason `json:"skip_reason,omitempty"`

	// Detail — пояснение к пропуску (например, какое условие не прошло).
	Detail string `json:"detail,omitempty"`

	// StartedAt — начало первой попытки.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — завершение последней попытки.
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Duration возвращает продолжительность выполнения задачи.
func (o *TaskOutcome) Duration() time.Duration {
	if o.StartedAt == nil || o.FinishedAt == nil {
		return 0
	}
	return o.FinishedAt.Sub(*o.StartedAt)
}

// Retries возвращает число повторных попыток.
func (o *TaskOutcome) Retries() int {
	if o.Attempts <= 1 {
		return 0
	}
	return o.Attempts - 1
}

// Reason возвращает человекочитаемую причину неудачи.
func (o *TaskOutcome) Reason() string {
	switch {
	case o.FailureKind == FailureHealth:
		return "launched, not verified: " + o.Error
	case o.Error != "":
		return o.Error
	default:
		return string(o.Status)
	}
}

// RunReport — упорядоченный отчёт об одном run.
//
// Порядок Outcomes: сначала пропуски (в порядке конфигурации),
// затем задачи в порядке выполнения, затем отменённые.
type RunReport struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// Profile — имя профиля конфигурации (пусто для базового).
	Profile string `json:"profile,omitempty"`

	// Trigger — источник запуска: "cli", "schedule", "api".
	Trigger string `json:"trigger,omitempty"`

	// DryRun — задачи не запускались, только планирование.
	DryRun bool `json:"dry_run,omitempty"`

	// Order — итоговый порядок запуска.
	Order []string `json:"order"`

	// Outcomes — итоги по задачам.
	Outcomes []TaskOutcome `json:"outcomes"`

	// Anomaly — предупреждение планировщика (остаточные задачи после сортировки).
	Anomaly string `json:"anomaly,omitempty"`

	// Cancelled — run прерван отменой контекста.
	Cancelled bool `json:"cancelled,omitempty"`

	// StartedAt — время начала run.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt — время завершения run.
	FinishedAt time.Time `json:"finished_at"`
}

// Duration возвращает продолжительность run.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Success возвращает true, если run не отменён и каждая
// непропущенная задача подтверждена.
func (r *RunReport) Success() bool {
	if r.Cancelled {
		return false
	}
	for i := range r.Outcomes {
		o := &r.Outcomes[i]
		if o.Status == TaskStatusSkipped {
			continue
		}
		if o.Status != TaskStatusVerified {
			return false
		}
	}
	return true
}

// Failures возвращает список причин неудач в формате "task: reason".
func (r *RunReport) Failures() []string {
	var failures []string
	for i := range r.Outcomes {
		o := &r.Outcomes[i]
		if o.Status.CountsAsFailure() {
			failures = append(failures, fmt.Sprintf("%s: %s", o.Task, o.Reason()))
		}
	}
	return failures
}

// Count возвращает число задач с указанным статусом.
func (r *RunReport) Count(status TaskStatus) int {
	n := 0
	for i := range r.Outcomes {
		if r.Outcomes[i].Status == status {
			n++
		}
	}
	return n
}

// TotalRetries возвращает суммарное число повторов по всем задачам.
func (r *RunReport) TotalRetries() int {
	n := 0
	for i := range r.Outcomes {
		n += r.Outcomes[i].Retries()
	}
	return n
}

// Outcome возвращает итог задачи по имени.
func (r *RunReport) Outcome(task string) (*TaskOutcome, bool) {
	for i := range r.Outcomes {
		if r.Outcomes[i].Task == task {
			return &r.Outcomes[i], true
		}
	}
	return nil, false
}

// ungroupedPhase — фаза для задач без группы.
const ungroupedPhase = "default"

// Phases сворачивает итоги по группам: суммарное время задач группы
// и успех, если каждая непропущенная задача группы подтверждена.
func (r *RunReport) Phases() map[string]PhaseRecord {
	if len(r.Outcomes) == 0 {
		return nil
	}

	phases := make(map[string]PhaseRecord)
	for i := range r.Outcomes {
		o := &r.Outcomes[i]
		name := o.Group
		if name == "" {
			name = ungroupedPhase
		}

		phase, ok := phases[name]
		if !ok {
			phase.Success = true
		}
		phase.Duration += o.Duration().Seconds()
		if o.Status != TaskStatusSkipped && o.Status != TaskStatusVerified {
			phase.Success = false
		}
		phases[name] = phase
	}
	return phases
}

// Record сворачивает отчёт в запись истории.
func (r *RunReport) Record() RunRecord {
	retries := make(map[string]int)
	for i := range r.Outcomes {
		if n := r.Outcomes[i].Retries(); n > 0 {
			retries[r.Outcomes[i].Task] = n
		}
	}
	return RunRecord{
		ID:              r.ID,
		Phases:          r.Phases(),
		Timestamp:       r.StartedAt,
		Profile:         r.Profile,
		Trigger:         r.Trigger,
		DurationSeconds: r.Duration().Seconds(),
		Errors:          r.Failures(),
		Retries:         retries,
		Success:         r.Success(),
		Cancelled:       r.Cancelled,
	}
}

// RunRecord — запись истории run'ов (одна строка metrics-журнала).
type RunRecord struct {
	ID              uuid.UUID      `json:"id"`
	Timestamp       time.Time      `json:"timestamp"`
	Profile         string         `json:"profile,omitempty"`
	Trigger         string         `json:"trigger,omitempty"`
	DurationSeconds float64        `json:"duration_seconds"`
	Errors          []string       `json:"errors"`
	Retries         map[string]int `json:"retries"`
	Success         bool           `json:"overall_success"`
	Cancelled       bool           `json:"cancelled,omitempty"`

	// Phases — итоги по группам задач (system, apps, browsers, …).
	Phases map[string]PhaseRecord `json:"phases,omitempty"`
}

// PhaseRecord — итог одной группы задач в run.
type PhaseRecord struct {
	// Duration — суммарное время задач группы в секундах.
	Duration float64 `json:"duration"`
	Success  bool    `json:"success"`
}

// RunSummary — агрегированная статистика по истории.
type RunSummary struct {
	TotalRuns   int        `json:"total_runs"`
	SuccessRate float64    `json:"success_rate"`
	AvgDuration float64    `json:"avg_duration_seconds"`
	LastRun     *time.Time `json:"last_run,omitempty"`
}

// Summarize считает статистику по набору записей.
func Summarize(records []RunRecord) RunSummary {
	var s RunSummary
	if len(records) == 0 {
		return s
	}

	var ok int
	var total float64
	var last time.Time
	for i := range records {
		rec := &records[i]
		if rec.Success {
			ok++
		}
		total += rec.DurationSeconds
		if rec.Timestamp.After(last) {
			last = rec.Timestamp
		}
	}

	s.TotalRuns = len(records)
	s.SuccessRate = float64(ok) / float64(len(records)) * 100
	s.AvgDuration = total / float64(len(records))
	s.LastRun = &last
	return s
}
