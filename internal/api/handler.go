package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaiso/launchpad/internal/domain"
	"github.com/shaiso/launchpad/internal/orchestrator"
)

// TriggerAPI — источник run'ов, запущенных через API.
const TriggerAPI = "api"

// Runner выполняет и планирует run (orchestrator.Orchestrator).
type Runner interface {
	Run(ctx context.Context, req orchestrator.RunRequest) (*domain.RunReport, error)
	Plan(ctx context.Context, req orchestrator.RunRequest) (*domain.RunReport, error)
	Active() (domain.RunReport, string, bool)
}

// HistoryReader читает историю run'ов (repo.Store).
type HistoryReader interface {
	List(ctx context.Context, limit int) ([]domain.RunRecord, error)
	Get(ctx context.Context, id uuid.UUID) (domain.RunRecord, error)
	Summary(ctx context.Context) (domain.RunSummary, error)
}

// ScheduleInfo описывает расписание демона (scheduler.Scheduler).
type ScheduleInfo interface {
	Expr() string
	Next(from time.Time) time.Time
	LastRun() time.Time
}

// RequestFunc строит запрос на run по текущей конфигурации.
type RequestFunc func() (orchestrator.RunRequest, error)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	runner   Runner
	history  HistoryReader
	request  RequestFunc
	schedule ScheduleInfo
	gatherer prometheus.Gatherer
	baseCtx  context.Context
	logger   *slog.Logger

	// runs отслеживает фоновые run'ы, запущенные через POST /runs.
	runs sync.WaitGroup
}

// Config — конфигурация для создания Handler.
type Config struct {
	Runner   Runner
	History  HistoryReader
	Request  RequestFunc
	Schedule ScheduleInfo // опционально

	// Gatherer — источник /metrics (default: prometheus.DefaultGatherer).
	Gatherer prometheus.Gatherer

	// BaseContext — контекст фоновых run'ов; его отмена отменяет run.
	BaseContext context.Context

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	baseCtx := cfg.BaseContext
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	return &Handler{
		runner:   cfg.Runner,
		history:  cfg.History,
		request:  cfg.Request,
		schedule: cfg.Schedule,
		gatherer: gatherer,
		baseCtx:  baseCtx,
		logger:   logger,
	}
}

// Wait ждёт завершения фоновых run'ов.
func (h *Handler) Wait() {
	h.runs.Wait()
}
