package probe

import (
	"context"
	"errors"
	"fmt"

	"github.com/shaiso/launchpad/internal/domain"
)

// ErrUnknownMethod — нет probe для метода health check.
var ErrUnknownMethod = errors.New("unknown health check method")

// Probe — один вид проверки готовности.
//
// Check возвращает (false, nil), если цель просто ещё не готова,
// и ошибку — если проверку не удалось выполнить.
type Probe interface {
	Check(ctx context.Context, pattern string) (bool, error)
}

// Func адаптирует функцию к интерфейсу Probe.
type Func func(ctx context.Context, pattern string) (bool, error)

// Check реализует Probe.
func (f Func) Check(ctx context.Context, pattern string) (bool, error) {
	return f(ctx, pattern)
}

// Set — набор probe по методам health check.
// Реализует worker.Prober.
type Set struct {
	probes map[domain.HealthMethod]Probe
}

// NewSet создаёт пустой набор.
func NewSet() *Set {
	return &Set{probes: make(map[domain.HealthMethod]Probe)}
}

// NewHostSet создаёт набор с probe хост-системы.
//
// Регистрирует: window_title, port, process, http.
func NewHostSet() *Set {
	s := NewSet()
	s.Register(domain.HealthMethodWindowTitle, NewWindowProbe())
	s.Register(domain.HealthMethodPort, &PortProbe{})
	s.Register(domain.HealthMethodProcess, &ProcessProbe{})
	s.Register(domain.HealthMethodHTTP, NewHTTPProbe())
	return s
}

// Register добавляет probe для метода.
func (s *Set) Register(method domain.HealthMethod, p Probe) {
	s.probes[method] = p
}

// Probe выполняет проверку по описанию health check.
// Метод none всегда даёт true.
func (s *Set) Probe(ctx context.Context, hc domain.HealthCheck) (bool, error) {
	if hc.Method == domain.HealthMethodNone || hc.Method == "" {
		return true, nil
	}

	p, ok := s.probes[hc.Method]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownMethod, hc.Method)
	}

	return p.Check(ctx, hc.Pattern)
}
