package orchestrator

import (
	"slices"
	"sync"
	"time"

	"github.com/shaiso/launchpad/internal/domain"
)

// RunState — состояние одного run в памяти.
//
// Создаётся в начале Run и отбрасывается по его завершении.
// Пишет в него только поток выполнения run; читать снимок может
// HTTP API демона, поэтому доступ защищён мьютексом.
type RunState struct {
	report *domain.RunReport

	// launched — подтверждённые задачи в порядке запуска (только добавление).
	launched []string

	// skipped — задачи, пропущенные по условиям или фильтрам.
	skipped map[string]struct{}

	// processed — задачи с финальным итогом в этом run.
	processed map[string]struct{}

	// current — задача, выполняющаяся прямо сейчас.
	current string

	mu sync.RWMutex
}

// NewRunState создаёт новый RunState.
func NewRunState(report *domain.RunReport) *RunState {
	return &RunState{
		report:    report,
		skipped:   make(map[string]struct{}),
		processed: make(map[string]struct{}),
	}
}

// Record добавляет итог задачи в отчёт.
// Подтверждённая задача попадает в launched-набор.
func (s *RunState) Record(outcome domain.TaskOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.report.Outcomes = append(s.report.Outcomes, outcome)
	s.processed[outcome.Task] = struct{}{}
	switch outcome.Status {
	case domain.TaskStatusVerified:
		s.launched = append(s.launched, outcome.Task)
	case domain.TaskStatusSkipped:
		s.skipped[outcome.Task] = struct{}{}
	}
	if s.current == outcome.Task {
		s.current = ""
	}
}

// Begin отмечает задачу как выполняющуюся.
func (s *RunState) Begin(task string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = task
}

// SetPlan записывает в отчёт порядок запуска и аномалию планировщика.
func (s *RunState) SetPlan(order []string, anomaly string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report.Order = order
	s.report.Anomaly = anomaly
}

// Finish отмечает время завершения run.
func (s *RunState) Finish(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report.FinishedAt = at
}

// Cancel отмечает run как отменённый.
func (s *RunState) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report.Cancelled = true
}

// UnmetDependency возвращает первую зависимость задачи, которая
// обработана в этом run, но не попала ни в launched-набор, ни в пропущенные.
// Зависимости вне run считаются удовлетворёнными.
func (s *RunState) UnmetDependency(task *domain.Task) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, dep := range task.DependsOn {
		if _, ok := s.processed[dep]; !ok {
			continue
		}
		if _, ok := s.skipped[dep]; ok {
			continue
		}
		if !slices.Contains(s.launched, dep) {
			return dep
		}
	}
	return ""
}

// Snapshot возвращает копию текущего отчёта и имя выполняющейся задачи.
func (s *RunState) Snapshot() (domain.RunReport, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report := *s.report
	report.Outcomes = append([]domain.TaskOutcome(nil), s.report.Outcomes...)
	report.Order = append([]string(nil), s.report.Order...)
	return report, s.current
}
