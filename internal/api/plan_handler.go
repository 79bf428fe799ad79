package api

import (
	"net/http"
	"strings"
)

// GetPlan возвращает решения по условиям и порядок запуска без запуска задач.
// GET /api/v1/plan?skip_group=a,b&only_group=c
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	runReq, err := h.request()
	if failRun(w, h.logger, err) {
		return
	}
	runReq.Trigger = TriggerAPI
	runReq.SkipGroups = splitList(r.URL.Query()["skip_group"])
	runReq.OnlyGroups = splitList(r.URL.Query()["only_group"])

	report, err := h.runner.Plan(r.Context(), runReq)
	if failRun(w, h.logger, err) {
		return
	}

	respond(w, http.StatusOK, ReportFromDomain(report))
}

// splitList раскрывает повторяющиеся и перечисленные через запятую значения.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
