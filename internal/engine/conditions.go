package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shaiso/launchpad/internal/domain"
)

// Clock — источник текущего локального времени.
type Clock interface {
	Now() time.Time
}

// ClockFunc адаптирует функцию к интерфейсу Clock.
type ClockFunc func() time.Time

// Now реализует Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock — часы на основе time.Now.
var SystemClock Clock = ClockFunc(time.Now)

// NetworkInfo — источник идентификатора текущей сети (SSID или префикс IPv4).
// Пустая строка без ошибки означает "сеть не определена".
type NetworkInfo interface {
	CurrentNetwork(ctx context.Context) (string, error)
}

// Outcome — результат оценки условий.
type Outcome int

const (
	// Indeterminate — условия не удалось подтвердить (ошибка разбора,
	// неизвестная сеть, только нераспознанные ключи).
	Indeterminate Outcome = iota

	// Eligible — все условия выполнены.
	Eligible

	// NotEligible — хотя бы одно условие не выполнено.
	NotEligible
)

// String возвращает строковое представление Outcome.
func (o Outcome) String() string {
	switch o {
	case Eligible:
		return "eligible"
	case NotEligible:
		return "not_eligible"
	default:
		return "indeterminate"
	}
}

// Decision — решение по условиям задачи с пояснением.
type Decision struct {
	Outcome Outcome
	Reason  string
}

// Eligible сворачивает решение в bool: только Eligible даёт true.
func (d Decision) Eligible() bool {
	return d.Outcome == Eligible
}

// conditionOrder — порядок проверки распознанных ключей.
var conditionOrder = []string{
	domain.ConditionTimeRange,
	domain.ConditionDays,
	domain.ConditionNetworks,
}

// EvaluatorConfig — настройки Evaluator.
type EvaluatorConfig struct {
	// Clock — часы (по умолчанию SystemClock).
	Clock Clock

	// Network — источник идентификатора сети. Если nil, условие networks
	// всегда Indeterminate.
	Network NetworkInfo

	// Logger — логгер.
	Logger *slog.Logger
}

// Evaluator решает, выполнены ли условия активации задачи.
//
// Evaluator никогда не паникует и не возвращает ошибок наружу:
// любой внутренний сбой превращается в Indeterminate.
type Evaluator struct {
	clock   Clock
	network NetworkInfo
	logger  *slog.Logger
}

// NewEvaluator создаёт Evaluator.
func NewEvaluator(cfg EvaluatorConfig) *Evaluator {
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		clock:   clock,
		network: cfg.Network,
		logger:  logger,
	}
}

// Evaluate оценивает условия задачи.
//
// Пустая карта → Eligible. Каждый распознанный ключ проверяется отдельно
// (логическое И, с коротким замыканием). Карта только из нераспознанных
// ключей → Indeterminate.
func (e *Evaluator) Evaluate(ctx context.Context, conds domain.Conditions) (d Decision) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("condition evaluation panicked", "panic", r)
			d = Decision{Outcome: Indeterminate, Reason: fmt.Sprintf("evaluation failed: %v", r)}
		}
	}()

	if len(conds) == 0 {
		return Decision{Outcome: Eligible, Reason: "no conditions"}
	}

	now := e.clock.Now()
	hasConditions := false

	for _, key := range conditionOrder {
		spec, ok := conds[key]
		if !ok {
			continue
		}
		hasConditions = true

		matched, err := e.check(ctx, key, spec, now)
		if err != nil {
			e.logger.Debug("condition indeterminate", "condition", key, "spec", spec, "error", err)
			return Decision{Outcome: Indeterminate, Reason: fmt.Sprintf("%s %q: %v", key, spec, err)}
		}
		if !matched {
			return Decision{Outcome: NotEligible, Reason: fmt.Sprintf("%s %q not met", key, spec)}
		}
	}

	if !hasConditions {
		return Decision{Outcome: Indeterminate, Reason: "no recognized conditions"}
	}

	return Decision{Outcome: Eligible, Reason: "all conditions met"}
}

// Eligible — упрощённая форма Evaluate, возвращающая bool.
func (e *Evaluator) Eligible(ctx context.Context, conds domain.Conditions) bool {
	return e.Evaluate(ctx, conds).Eligible()
}

// check проверяет один распознанный ключ.
func (e *Evaluator) check(ctx context.Context, key, spec string, now time.Time) (bool, error) {
	switch key {
	case domain.ConditionTimeRange:
		return matchTimeRange(spec, now)
	case domain.ConditionDays:
		return matchDays(spec, now)
	case domain.ConditionNetworks:
		return e.matchNetworks(ctx, spec)
	default:
		return false, fmt.Errorf("%w: %s", ErrUnknownCondition, key)
	}
}

// matchTimeRange проверяет "HH:MM-HH:MM" включительно с обеих сторон.
// Диапазон через полночь ("22:00-02:00") никогда не совпадает.
func matchTimeRange(spec string, now time.Time) (bool, error) {
	start, end, err := parseTimeRange(spec)
	if err != nil {
		return false, err
	}
	current := now.Hour()*60 + now.Minute()
	return start <= current && current <= end, nil
}

// parseTimeRange разбирает "HH:MM-HH:MM" в минуты от начала суток.
func parseTimeRange(spec string) (int, int, error) {
	parts := strings.Split(spec, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: expected HH:MM-HH:MM", ErrInvalidCondition)
	}
	start, err := parseClock(parts[0])
	if err != nil {
		return 0, 0, err
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// parseClock разбирает "HH:MM" (допускается "9:00").
func parseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q is not HH:MM", ErrInvalidCondition, s)
	}
	h, err := strconv.Atoi(strings.TrimSpace(hh))
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: bad hour in %q", ErrInvalidCondition, s)
	}
	m, err := strconv.Atoi(strings.TrimSpace(mm))
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: bad minute in %q", ErrInvalidCondition, s)
	}
	return h*60 + m, nil
}

// weekDays — упорядоченная неделя, понедельник первый.
var weekDays = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// dayIndex возвращает номер дня недели (mon=0 … sun=6).
func dayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// dayNumber возвращает номер дня по трёхбуквенному сокращению.
func dayNumber(abbr string) (int, bool) {
	for i, d := range weekDays {
		if d == abbr {
			return i, true
		}
	}
	return 0, false
}

// matchDays проверяет спецификацию дней.
//
// Приоритет форм: weekdays/weekends → диапазон "mon-fri" (есть "-", нет ",")
// → список "mon,wed,fri" → одиночный день "mon".
func matchDays(spec string, now time.Time) (bool, error) {
	s := strings.ToLower(strings.TrimSpace(spec))
	today := dayIndex(now)

	switch s {
	case "weekdays":
		return today < 5, nil
	case "weekends":
		return today >= 5, nil
	}

	if strings.Contains(s, "-") && !strings.Contains(s, ",") {
		from, to, ok := strings.Cut(s, "-")
		// Стороны диапазона не обрезаются: "mon - fri" не совпадает ни с каким днём.
		start, okStart := dayNumber(from)
		end, okEnd := dayNumber(to)
		if ok && okStart && okEnd {
			return start <= today && today <= end, nil
		}
	}

	if strings.Contains(s, ",") {
		for _, d := range strings.Split(s, ",") {
			if strings.TrimSpace(d) == weekDays[today] {
				return true, nil
			}
		}
		return false, nil
	}

	return s == weekDays[today], nil
}

// matchNetworks проверяет, входит ли текущая сеть в список.
func (e *Evaluator) matchNetworks(ctx context.Context, spec string) (bool, error) {
	if e.network == nil {
		return false, ErrNetworkUnknown
	}

	current, err := e.network.CurrentNetwork(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrNetworkUnknown, err)
	}
	if current == "" {
		return false, ErrNetworkUnknown
	}

	for _, n := range strings.Split(spec, ",") {
		if strings.EqualFold(strings.TrimSpace(n), current) {
			return true, nil
		}
	}
	return false, nil
}

// ValidateConditions выполняет синтаксическую проверку условий.
// Используется при загрузке конфигурации: кривая спецификация — ошибка конфигурации,
// а не молчаливый пропуск задачи.
func ValidateConditions(conds domain.Conditions) error {
	for key, spec := range conds {
		switch key {
		case domain.ConditionTimeRange:
			if _, _, err := parseTimeRange(spec); err != nil {
				return err
			}
		case domain.ConditionDays:
			if err := validateDays(spec); err != nil {
				return err
			}
		case domain.ConditionNetworks:
			if strings.TrimSpace(strings.ReplaceAll(spec, ",", "")) == "" {
				return fmt.Errorf("%w: empty networks list", ErrInvalidCondition)
			}
		}
	}
	return nil
}

// validateDays проверяет, что спецификация дней состоит из известных сокращений.
func validateDays(spec string) error {
	s := strings.ToLower(strings.TrimSpace(spec))
	if s == "weekdays" || s == "weekends" {
		return nil
	}

	var parts []string
	switch {
	case strings.Contains(s, ","):
		parts = strings.Split(s, ",")
	case strings.Contains(s, "-"):
		parts = strings.Split(s, "-")
		if len(parts) != 2 || strings.ContainsAny(s, " \t") {
			return fmt.Errorf("%w: bad day range %q", ErrInvalidCondition, spec)
		}
	default:
		parts = []string{s}
	}

	for _, p := range parts {
		if _, ok := dayNumber(strings.TrimSpace(p)); !ok {
			return fmt.Errorf("%w: unknown day %q in %q", ErrInvalidCondition, strings.TrimSpace(p), spec)
		}
	}
	return nil
}
