package api

import (
	"net/http"
	"time"
)

// GetSchedule возвращает расписание демона.
// GET /api/v1/schedule
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	if h.schedule == nil {
		respond(w, http.StatusOK, ScheduleResponse{Enabled: false})
		return
	}

	next := h.schedule.Next(time.Now())
	resp := ScheduleResponse{
		Enabled: true,
		Expr:    h.schedule.Expr(),
		NextRun: &next,
	}
	if last := h.schedule.LastRun(); !last.IsZero() {
		resp.LastRun = &last
	}

	respond(w, http.StatusOK, resp)
}

// Health — проверка живости демона.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	_, _, running := h.runner.Active()
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Running: running})
}
