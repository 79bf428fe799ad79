// Package api содержит локальный HTTP API демона.
//
// Структура:
//   - handler.go          — Handler с DI (orchestrator, история, расписание)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (request id, logging, recovery, body limit)
//   - response.go         — конверт ответов и коды ошибок (RUN_IN_PROGRESS, INVALID_CONFIG, …)
//   - dto.go              — Data Transfer Objects (request/response)
//   - run_handler.go      — обработчики для /runs
//   - plan_handler.go     — dry run через /plan
//   - schedule_handler.go — расписание и /healthz
//
// Помимо /api/v1 сервер отдаёт /metrics для Prometheus.
package api
