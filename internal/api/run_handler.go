package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shaiso/launchpad/internal/orchestrator"
)

const (
	defaultListLimit = 20
	maxListLimit     = 1000
)

// ListRuns возвращает историю run'ов, новые первыми.
// GET /api/v1/runs?limit=...
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 0 {
			fail(w, http.StatusBadRequest, CodeBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxListLimit)
	}

	records, err := h.history.List(r.Context(), limit)
	if failHistory(w, h.logger, err, "") {
		return
	}

	respondList(w, records, len(records))
}

// GetRun возвращает запись истории по ID.
// GET /api/v1/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		fail(w, http.StatusBadRequest, CodeBadRequest, "invalid run id")
		return
	}

	record, err := h.history.Get(r.Context(), id)
	if failHistory(w, h.logger, err, "run not found") {
		return
	}

	respond(w, http.StatusOK, record)
}

// GetSummary возвращает статистику по истории.
// GET /api/v1/runs/summary
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.history.Summary(r.Context())
	if failHistory(w, h.logger, err, "") {
		return
	}

	respond(w, http.StatusOK, summary)
}

// GetCurrentRun возвращает снимок выполняющегося run.
// GET /api/v1/runs/current
func (h *Handler) GetCurrentRun(w http.ResponseWriter, r *http.Request) {
	report, current, ok := h.runner.Active()
	if !ok {
		fail(w, http.StatusNotFound, CodeNotFound, "no run in progress")
		return
	}

	respond(w, http.StatusOK, CurrentRunResponse{
		Report:      ReportFromDomain(&report),
		CurrentTask: current,
	})
}

// CreateRun запускает run по текущей конфигурации.
// POST /api/v1/runs
//
// По умолчанию run идёт в фоне (202). С "wait": true или "dry_run": true
// ответ содержит отчёт.
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(w, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return
	}

	runReq, err := h.request()
	if failRun(w, h.logger, err) {
		return
	}
	runReq.Trigger = TriggerAPI
	runReq.SkipGroups = req.SkipGroups
	runReq.OnlyGroups = req.OnlyGroups
	runReq.DryRun = req.DryRun

	if req.DryRun || req.Wait {
		report, err := h.runner.Run(r.Context(), runReq)
		if failRun(w, h.logger, err) {
			return
		}
		status := http.StatusCreated
		if req.DryRun {
			status = http.StatusOK
		}
		respond(w, status, ReportFromDomain(report))
		return
	}

	if _, _, running := h.runner.Active(); running {
		fail(w, http.StatusConflict, CodeRunInProgress, orchestrator.ErrRunInProgress.Error())
		return
	}

	h.runs.Add(1)
	go func() {
		defer h.runs.Done()
		report, err := h.runner.Run(h.baseCtx, runReq)
		if err != nil {
			h.logger.Warn("api run not started", "error", err)
			return
		}
		h.logger.Info("api run completed", "run_id", report.ID, "success", report.Success())
	}()

	respond(w, http.StatusAccepted, RunAcceptedResponse{Status: "accepted"})
}
