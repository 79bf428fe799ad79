package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaiso/launchpad/internal/domain"
)

const metricsNamespace = "launchpad"

// Metrics — Prometheus-коллекторы итогов run'ов.
type Metrics struct {
	runs        *prometheus.CounterVec
	runDuration prometheus.Histogram
	outcomes    *prometheus.CounterVec
	attempts    *prometheus.CounterVec
	retries     *prometheus.CounterVec
	lastRun     prometheus.Gauge
}

// MustNewMetrics регистрирует коллекторы в reg (nil — DefaultRegisterer).
//
// Повторная регистрация переиспользует существующие коллекторы, поэтому
// демон может пересоздавать Metrics при перезагрузке конфигурации.
// Прочие ошибки регистрации приводят к панике.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_total",
			Help:      "Completed runs by result (success, failure, cancelled).",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of a run.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "task_outcomes_total",
			Help:      "Final task statuses.",
		}, []string{"task", "status"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "task_attempts_total",
			Help:      "Launch attempts per task.",
		}, []string{"task"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "task_retries_total",
			Help:      "Retries per task.",
		}, []string{"task"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed run.",
		}),
	}

	m.runs = register(reg, m.runs)
	m.runDuration = register(reg, m.runDuration)
	m.outcomes = register(reg, m.outcomes)
	m.attempts = register(reg, m.attempts)
	m.retries = register(reg, m.retries)
	m.lastRun = register(reg, m.lastRun)

	return m
}

// register регистрирует коллектор или возвращает уже зарегистрированный.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(fmt.Sprintf("register metric: %v", err))
	}
	return c
}

// ObserveRun записывает итоги run. Dry run не учитывается.
func (m *Metrics) ObserveRun(report *domain.RunReport) {
	if m == nil || report == nil || report.DryRun {
		return
	}

	m.runs.WithLabelValues(RunResult(report)).Inc()
	m.runDuration.Observe(report.Duration().Seconds())
	if !report.FinishedAt.IsZero() {
		m.lastRun.Set(float64(report.FinishedAt.Unix()))
	}

	for i := range report.Outcomes {
		o := &report.Outcomes[i]
		m.outcomes.WithLabelValues(o.Task, string(o.Status)).Inc()
		if o.Attempts > 0 {
			m.attempts.WithLabelValues(o.Task).Add(float64(o.Attempts))
		}
		if n := o.Retries(); n > 0 {
			m.retries.WithLabelValues(o.Task).Add(float64(n))
		}
	}
}

// RunResult возвращает метку результата: success, failure или cancelled.
func RunResult(report *domain.RunReport) string {
	switch {
	case report.Cancelled:
		return "cancelled"
	case report.Success():
		return "success"
	default:
		return "failure"
	}
}

// WriteTextfile сохраняет метрики из gatherer в формате node-exporter textfile.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
