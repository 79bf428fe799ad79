package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaiso/launchpad/internal/config"
	"github.com/shaiso/launchpad/internal/orchestrator"
	"github.com/shaiso/launchpad/internal/repo"
)

// ErrorCode — машиночитаемый код ошибки API.
type ErrorCode string

const (
	CodeBadRequest    ErrorCode = "BAD_REQUEST"
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeRunInProgress ErrorCode = "RUN_IN_PROGRESS"
	CodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	CodeInternal      ErrorCode = "INTERNAL_ERROR"
)

// Envelope — конверт ответа API: data (и total для списков) либо error.
type Envelope struct {
	Data  any          `json:"data,omitempty"`
	Total int          `json:"total,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail — описание ошибки.
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respond отправляет data с указанным статусом.
func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Data: data})
}

// respondList отправляет список с общим числом элементов.
func respondList(w http.ResponseWriter, items any, total int) {
	writeJSON(w, http.StatusOK, Envelope{Data: items, Total: total})
}

// fail отправляет ответ с ошибкой.
func fail(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, Envelope{Error: &ErrorDetail{Code: code, Message: message}})
}

// failInternal логирует err и отправляет 500 без подробностей.
func failInternal(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("internal error", "error", err)
	fail(w, http.StatusInternalServerError, CodeInternal, "internal server error")
}

// failHistory отвечает на ошибку хранилища истории.
// Возвращает false, если err == nil.
func failHistory(w http.ResponseWriter, logger *slog.Logger, err error, notFound string) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, repo.ErrNotFound):
		fail(w, http.StatusNotFound, CodeNotFound, notFound)
	default:
		failInternal(w, logger, err)
	}
	return true
}

// failRun отвечает на ошибку запуска run или чтения конфигурации:
// 409 для параллельного run, 422 для некорректной конфигурации.
// Возвращает false, если err == nil.
func failRun(w http.ResponseWriter, logger *slog.Logger, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, orchestrator.ErrRunInProgress):
		fail(w, http.StatusConflict, CodeRunInProgress, err.Error())
	case errors.Is(err, orchestrator.ErrInvalidConfig), errors.Is(err, config.ErrConfig):
		fail(w, http.StatusUnprocessableEntity, CodeInvalidConfig, err.Error())
	default:
		failInternal(w, logger, err)
	}
	return true
}
