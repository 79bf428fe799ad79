// Package telemetry обеспечивает наблюдаемость launchpad.
//
// Включает:
//   - logging.go — structured logging через slog (stdout + ротируемый файл)
//   - metrics.go — Prometheus метрики итогов run'ов
//
// Демон отдаёт метрики на /metrics, разовый run может записать
// их в textfile для node-exporter.
package telemetry
