package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/launchpad/internal/domain"
)

// Run DTOs

// CreateRunRequest — запрос на запуск run.
type CreateRunRequest struct {
	SkipGroups []string `json:"skip_groups,omitempty"`
	OnlyGroups []string `json:"only_groups,omitempty"`
	DryRun     bool     `json:"dry_run,omitempty"`

	// Wait — дождаться завершения и вернуть отчёт (иначе 202 Accepted).
	Wait bool `json:"wait,omitempty"`
}

// RunAcceptedResponse — run запущен в фоне.
type RunAcceptedResponse struct {
	Status string `json:"status"`
}

// ReportResponse — отчёт о run.
type ReportResponse struct {
	ID              uuid.UUID            `json:"id"`
	Profile         string               `json:"profile,omitempty"`
	Trigger         string               `json:"trigger,omitempty"`
	DryRun          bool                 `json:"dry_run,omitempty"`
	Order           []string             `json:"order"`
	Outcomes        []domain.TaskOutcome `json:"outcomes"`
	Anomaly         string               `json:"anomaly,omitempty"`
	Cancelled       bool                 `json:"cancelled,omitempty"`
	Success         bool                 `json:"success"`
	Errors          []string             `json:"errors,omitempty"`
	StartedAt       time.Time            `json:"started_at"`
	FinishedAt      *time.Time           `json:"finished_at,omitempty"`
	DurationSeconds float64              `json:"duration_seconds"`
}

// ReportFromDomain конвертирует domain.RunReport в ReportResponse.
func ReportFromDomain(r *domain.RunReport) ReportResponse {
	resp := ReportResponse{
		ID:              r.ID,
		Profile:         r.Profile,
		Trigger:         r.Trigger,
		DryRun:          r.DryRun,
		Order:           r.Order,
		Outcomes:        r.Outcomes,
		Anomaly:         r.Anomaly,
		Cancelled:       r.Cancelled,
		Success:         r.Success(),
		Errors:          r.Failures(),
		StartedAt:       r.StartedAt,
		DurationSeconds: r.Duration().Seconds(),
	}
	if !r.FinishedAt.IsZero() {
		finished := r.FinishedAt
		resp.FinishedAt = &finished
	}
	if resp.Order == nil {
		resp.Order = []string{}
	}
	if resp.Outcomes == nil {
		resp.Outcomes = []domain.TaskOutcome{}
	}
	return resp
}

// CurrentRunResponse — снимок выполняющегося run.
type CurrentRunResponse struct {
	Report      ReportResponse `json:"report"`
	CurrentTask string         `json:"current_task,omitempty"`
}

// Schedule DTOs

// ScheduleResponse — расписание демона.
type ScheduleResponse struct {
	Enabled bool       `json:"enabled"`
	Expr    string     `json:"expr,omitempty"`
	NextRun *time.Time `json:"next_run,omitempty"`
	LastRun *time.Time `json:"last_run,omitempty"`
}

// Service DTOs

// HealthResponse — состояние демона.
type HealthResponse struct {
	Status  string `json:"status"`
	Running bool   `json:"running"`
}
