package engine

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shaiso/launchpad/internal/domain"
)

func TestValidate_EmptyTaskName(t *testing.T) {
	err := Validate([]domain.Task{{Name: "", Kind: domain.TaskKindExec}})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if !errors.Is(vErr.Err, ErrEmptyTaskName) {
		t.Errorf("expected ErrEmptyTaskName, got %v", vErr.Err)
	}
}

func TestValidate_DuplicateTaskName(t *testing.T) {
	err := Validate([]domain.Task{task("Slack"), task("Slack")})
	if !errors.Is(err, ErrDuplicateTask) {
		t.Errorf("expected ErrDuplicateTask, got %v", err)
	}
}

func TestValidate_UnknownKind(t *testing.T) {
	tests := []struct {
		name string
		kind domain.TaskKind
	}{
		{name: "empty kind", kind: ""},
		{name: "unknown kind", kind: "teleport"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate([]domain.Task{{Name: "A", Kind: tt.kind}})
			if !errors.Is(err, ErrUnknownTaskKind) {
				t.Errorf("expected ErrUnknownTaskKind, got %v", err)
			}
		})
	}
}

func TestValidate_SelfDependency(t *testing.T) {
	err := Validate([]domain.Task{task("A", "A")})
	if !errors.Is(err, ErrSelfDependency) {
		t.Errorf("expected ErrSelfDependency, got %v", err)
	}
	if !errors.Is(err, ErrCyclicDependency) {
		t.Errorf("self dependency must be reported as a cycle, got %v", err)
	}
}

func TestValidate_MissingDependency(t *testing.T) {
	err := Validate([]domain.Task{task("A", "Ghost")})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if !errors.Is(err, ErrMissingDependency) {
		t.Errorf("expected ErrMissingDependency, got %v", err)
	}

	var mErr *MissingDependencyError
	if !errors.As(err, &mErr) {
		t.Fatalf("expected MissingDependencyError, got %T", err)
	}
	if mErr.Task != "A" || mErr.Dependency != "Ghost" {
		t.Errorf("expected A -> Ghost, got %s -> %s", mErr.Task, mErr.Dependency)
	}
	if !strings.Contains(err.Error(), "A") || !strings.Contains(err.Error(), "Ghost") {
		t.Errorf("error should name both tasks: %v", err)
	}
}

func TestValidate_CircularDependency(t *testing.T) {
	err := Validate([]domain.Task{task("A", "B"), task("B", "A")})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if !errors.Is(err, ErrCyclicDependency) {
		t.Errorf("expected ErrCyclicDependency, got %v", err)
	}

	var cErr *CircularDependencyError
	if !errors.As(err, &cErr) {
		t.Fatalf("expected CircularDependencyError, got %T", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "A") || !strings.Contains(msg, "B") {
		t.Errorf("error should name both tasks: %v", msg)
	}
	if len(cErr.Cycle) != 3 || cErr.Cycle[0] != cErr.Cycle[2] {
		t.Errorf("expected closed cycle path, got %v", cErr.Cycle)
	}
}

func TestValidate_LongCycle(t *testing.T) {
	err := Validate([]domain.Task{
		task("root"),
		task("A", "root", "C"),
		task("B", "A"),
		task("C", "B"),
	})

	var cErr *CircularDependencyError
	if !errors.As(err, &cErr) {
		t.Fatalf("expected CircularDependencyError, got %v", err)
	}
	if got := strings.Join(cErr.Cycle, " -> "); got != "A -> C -> B -> A" {
		t.Errorf("unexpected cycle path: %s", got)
	}
}

func TestValidate_SharedDependencyIsNotACycle(t *testing.T) {
	err := Validate([]domain.Task{
		task("A"),
		task("B", "A"),
		task("C", "A"),
		task("D", "B", "C"),
	})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_HealthCheck(t *testing.T) {
	tests := []struct {
		name    string
		hc      *domain.HealthCheck
		wantErr bool
	}{
		{name: "nil health check", hc: nil},
		{name: "method none without pattern", hc: &domain.HealthCheck{Method: domain.HealthMethodNone}},
		{name: "port with pattern", hc: &domain.HealthCheck{Method: domain.HealthMethodPort, Pattern: "8080", Retries: 2}},
		{name: "process without pattern", hc: &domain.HealthCheck{Method: domain.HealthMethodProcess}, wantErr: true},
		{name: "unknown method", hc: &domain.HealthCheck{Method: "smell", Pattern: "x"}, wantErr: true},
		{name: "negative retries", hc: &domain.HealthCheck{Method: domain.HealthMethodPort, Pattern: "1", Retries: -1}, wantErr: true},
		{name: "negative timeout", hc: &domain.HealthCheck{Method: domain.HealthMethodPort, Pattern: "1", Timeout: -time.Second}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := task("A")
			tk.HealthCheck = tt.hc
			err := Validate([]domain.Task{tk})
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidHealthCheck) {
					t.Errorf("expected ErrInvalidHealthCheck, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidate_MalformedCondition(t *testing.T) {
	tk := task("A")
	tk.Conditions = domain.Conditions{"time_range": "nine-to-five"}

	err := Validate([]domain.Task{tk})
	if !errors.Is(err, ErrInvalidCondition) {
		t.Errorf("expected ErrInvalidCondition, got %v", err)
	}
}

func TestValidate_ValidTasks(t *testing.T) {
	vpn := task("VPN")
	vpn.Group = "system"
	vpn.HealthCheck = &domain.HealthCheck{Method: domain.HealthMethodProcess, Pattern: "openvpn", Retries: 2}

	slack := task("Slack", "VPN")
	slack.Conditions = domain.Conditions{"days": "weekdays", "time_range": "08:00-19:00"}

	browser := domain.Task{Name: "Work Browser", Kind: domain.TaskKindBrowser, Enabled: true, URLs: []string{"https://mail.example.com"}}

	if err := Validate([]domain.Task{vpn, slack, browser}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestIsValidTaskKind(t *testing.T) {
	for _, kind := range []domain.TaskKind{domain.TaskKindExec, domain.TaskKindOpen, domain.TaskKindBrowser} {
		if !IsValidTaskKind(kind) {
			t.Errorf("expected %q to be valid", kind)
		}
	}
	if IsValidTaskKind("ssh") {
		t.Error("expected ssh to be invalid")
	}
}
