package probe

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessProbe проверяет, что запущен процесс с заданным именем.
//
// Сравнение без учёта регистра, суффикс ".exe" игнорируется.
type ProcessProbe struct {
	// List — источник имён процессов (по умолчанию gopsutil).
	List func(ctx context.Context) ([]string, error)
}

// Check реализует Probe.
func (p *ProcessProbe) Check(ctx context.Context, pattern string) (bool, error) {
	list := p.List
	if list == nil {
		list = processNames
	}

	names, err := list(ctx)
	if err != nil {
		return false, fmt.Errorf("process probe: %w", err)
	}

	want := normalizeProcessName(pattern)
	for _, name := range names {
		if normalizeProcessName(name) == want {
			return true, nil
		}
	}
	return false, nil
}

// processNames возвращает имена всех процессов системы.
// Процессы, исчезнувшие во время обхода, пропускаются.
func processNames(ctx context.Context) ([]string, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(procs))
	for _, proc := range procs {
		name, err := proc.NameWithContext(ctx)
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func normalizeProcessName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimSuffix(name, ".exe")
}
