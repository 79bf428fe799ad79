package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/launchpad/internal/api"
	"github.com/shaiso/launchpad/internal/config"
	"github.com/shaiso/launchpad/internal/domain"
	"github.com/shaiso/launchpad/internal/notify"
	"github.com/shaiso/launchpad/internal/orchestrator"
	"github.com/shaiso/launchpad/internal/repo"
)

const testConfig = `
general:
  log_level: ERROR
network:
  detect: false
notifications:
  enabled: false
tasks:
  - name: VPN
    type: exec
    group: system
    command: rasdial
  - name: Slack
    type: exec
    group: apps
    command: slack
    depends_on: [VPN]
  - name: Browser
    type: exec
    group: browsers
    command: chromium
    depends_on: [VPN]
`

// fakeExecutor подтверждает все задачи, кроме перечисленных в fail.
type fakeExecutor struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls []string
}

func (f *fakeExecutor) Execute(_ context.Context, task *domain.Task) domain.TaskOutcome {
	f.mu.Lock()
	f.calls = append(f.calls, task.Name)
	f.mu.Unlock()

	if f.fail[task.Name] {
		return domain.TaskOutcome{
			Task:        task.Name,
			Group:       task.Group,
			Status:      domain.TaskStatusFailed,
			Attempts:    1,
			Error:       "exit status 1",
			FailureKind: domain.FailureLaunch,
		}
	}
	return domain.TaskOutcome{
		Task:     task.Name,
		Group:    task.Group,
		Status:   domain.TaskStatusVerified,
		Launched: true,
		Verified: true,
		Attempts: 1,
	}
}

type recordingSink struct {
	msgs []notify.Message
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Send(_ context.Context, msg notify.Message, _ *domain.RunReport) error {
	s.msgs = append(s.msgs, msg)
	return nil
}

type harness struct {
	t        *testing.T
	dir      string
	config   string
	executor *fakeExecutor
	sink     *recordingSink
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))
	return &harness{
		t:        t,
		dir:      dir,
		config:   path,
		executor: &fakeExecutor{fail: map[string]bool{}},
		sink:     &recordingSink{},
	}
}

// run выполняет командную строку и возвращает код выхода, stdout и stderr.
func (h *harness) run(args ...string) (int, string, string) {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	app := &App{
		Stdout:     &stdout,
		Stderr:     &stderr,
		Executor:   h.executor,
		ErrorSinks: []notify.Sink{h.sink},
	}
	full := append([]string{"--config", h.config}, args...)
	code := Execute(context.Background(), app, "test", full)
	return code, stdout.String(), stderr.String()
}

// --- ExitCode Tests ---

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"config", fmt.Errorf("%w: config file not found", config.ErrConfig), ExitConfigErr},
		{"invalid task graph", fmt.Errorf("%w: cycle", orchestrator.ErrInvalidConfig), ExitConfigErr},
		{"run failed", ErrRunFailed, ExitFailure},
		{"other", errors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

// --- Command Tests ---

func TestRunCmd_Success(t *testing.T) {
	h := newHarness(t)

	code, stdout, _ := h.run("run", "--json")
	require.Equal(t, ExitOK, code)

	var report domain.RunReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, []string{"VPN", "Slack", "Browser"}, report.Order)
	assert.True(t, report.Success())
	assert.Equal(t, "cli", report.Trigger)
	assert.Equal(t, []string{"VPN", "Slack", "Browser"}, h.executor.calls)

	assert.FileExists(t, filepath.Join(h.dir, "logs", repo.JSONLFileName))
}

func TestRunCmd_FailureExitCode(t *testing.T) {
	h := newHarness(t)
	h.executor.fail["Slack"] = true

	code, stdout, _ := h.run("run", "--no-color")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stdout, "Completed with 1 error(s)")
	assert.Contains(t, stdout, "exit status 1")
	assert.Equal(t, []string{"VPN", "Slack", "Browser"}, h.executor.calls, "a failure never aborts the run")
}

func TestRunCmd_GroupFilters(t *testing.T) {
	h := newHarness(t)

	code, stdout, _ := h.run("run", "--json", "--skip-group", "browsers")
	require.Equal(t, ExitOK, code)
	assert.Equal(t, []string{"VPN", "Slack"}, h.executor.calls)

	var report domain.RunReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	skipped, ok := report.Outcome("Browser")
	require.True(t, ok)
	assert.Equal(t, domain.TaskStatusSkipped, skipped.Status)
	assert.Equal(t, domain.SkipFiltered, skipped.SkipReason)
}

func TestRunCmd_MetricsTextfile(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.dir, "launchpad.prom")

	code, _, _ := h.run("run", "--json", "--metrics-textfile", path)
	require.Equal(t, ExitOK, code)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `launchpad_runs_total{result="success"} 1`)
}

func TestRunCmd_ConfigError(t *testing.T) {
	h := newHarness(t)
	h.config = filepath.Join(h.dir, "missing.yaml")

	code, _, stderr := h.run("run")
	assert.Equal(t, ExitConfigErr, code)
	assert.Contains(t, stderr, "config file not found")
	assert.Empty(t, h.executor.calls)

	require.Len(t, h.sink.msgs, 1)
	assert.Equal(t, "Startup Error", h.sink.msgs[0].Title)
}

func TestRunCmd_DryRunLaunchesNothing(t *testing.T) {
	h := newHarness(t)

	code, stdout, _ := h.run("run", "--dry-run", "--no-color")
	require.Equal(t, ExitOK, code)
	assert.Empty(t, h.executor.calls)
	assert.Contains(t, stdout, "Plan: VPN → Slack → Browser")
}

func TestPlanCmd(t *testing.T) {
	h := newHarness(t)

	code, stdout, _ := h.run("plan", "--json", "--only-group", "system")
	require.Equal(t, ExitOK, code)
	assert.Empty(t, h.executor.calls)

	var report domain.RunReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.True(t, report.DryRun)
	assert.Equal(t, []string{"VPN"}, report.Order)
	assert.Equal(t, 2, report.Count(domain.TaskStatusSkipped))
}

func TestValidateCmd(t *testing.T) {
	h := newHarness(t)

	code, stdout, stderr := h.run("validate", "--no-color")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, stdout, "default")
	assert.Contains(t, stderr, "Configuration is valid")

	require.NoError(t, os.WriteFile(h.config, []byte(`
tasks:
  - name: A
    type: exec
    command: a
    depends_on: [B]
`), 0o644))
	code, _, stderr = h.run("validate")
	assert.Equal(t, ExitConfigErr, code)
	assert.Contains(t, stderr, "B")
}

func TestHistoryAndSummaryCmd(t *testing.T) {
	h := newHarness(t)

	code, _, _ := h.run("run", "--json")
	require.Equal(t, ExitOK, code)
	h.executor.fail["Browser"] = true
	code, _, _ = h.run("run", "--json")
	require.Equal(t, ExitFailure, code)

	code, stdout, _ := h.run("history", "--json")
	require.Equal(t, ExitOK, code)
	var records []domain.RunRecord
	require.NoError(t, json.Unmarshal([]byte(stdout), &records))
	require.Len(t, records, 2)
	assert.False(t, records[0].Success, "newest first")
	assert.True(t, records[1].Success)
	assert.False(t, records[0].Phases["browsers"].Success)
	assert.True(t, records[0].Phases["system"].Success)
	assert.Len(t, records[1].Phases, 3)

	code, stdout, _ = h.run("history", "--chart")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, stdout, "Startup Duration Trend:")

	code, stdout, _ = h.run("summary", "--json")
	require.Equal(t, ExitOK, code)
	var summary domain.RunSummary
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary))
	assert.Equal(t, 2, summary.TotalRuns)
	assert.InDelta(t, 50.0, summary.SuccessRate, 0.001)
}

func TestProfilesCmd(t *testing.T) {
	h := newHarness(t)
	profiles := filepath.Join(h.dir, "profiles")
	require.NoError(t, os.MkdirAll(profiles, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(profiles, "work.yaml"), []byte("general:\n  max_retries: 1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(profiles, "home.yml"), []byte("general:\n  max_retries: 2\n"), 0o644))

	code, stdout, _ := h.run("profiles", "--json")
	require.Equal(t, ExitOK, code)
	var names []string
	require.NoError(t, json.Unmarshal([]byte(stdout), &names))
	assert.Equal(t, []string{"home", "work"}, names)

	code, _, _ = h.run("--profile", "work", "validate")
	assert.Equal(t, ExitOK, code)

	code, _, _ = h.run("--profile", "gym", "validate")
	assert.Equal(t, ExitConfigErr, code)
}

func TestConfigCmd(t *testing.T) {
	h := newHarness(t)
	h.config = filepath.Join(h.dir, "fresh", "config.yaml")

	code, _, _ := h.run("config", "init")
	require.Equal(t, ExitOK, code)
	assert.FileExists(t, h.config)

	code, _, stderr := h.run("config", "init")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "--force")

	code, stdout, _ := h.run("config", "show")
	require.Equal(t, ExitOK, code)
	parsed, err := config.Parse([]byte(stdout))
	require.NoError(t, err)
	assert.NotEmpty(t, parsed.Tasks)

	code, _, _ = h.run("validate")
	assert.Equal(t, ExitOK, code)
}

// --- Output Tests ---

func TestFormatChart(t *testing.T) {
	assert.Equal(t, "No data for chart.\n", FormatChart(nil))

	base := time.Date(2024, 1, 2, 12, 0, 0, 0, time.Local)
	records := []domain.RunRecord{
		{Timestamp: base.Add(24 * time.Hour), DurationSeconds: 10},
		{Timestamp: base, DurationSeconds: 20},
	}

	lines := strings.Split(strings.TrimSpace(FormatChart(records)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "2024-01-02 |  20.0s |"+strings.Repeat("█", chartWidth), lines[2], "oldest first")
	assert.Equal(t, "2024-01-03 |  10.0s |"+strings.Repeat("█", chartWidth/2), lines[3])
}

func TestOutput_ReportTable(t *testing.T) {
	var stdout bytes.Buffer
	out := NewOutput(&stdout, &bytes.Buffer{}, false, true)

	start := time.Now()
	out.Report(&domain.RunReport{
		Order: []string{"VPN"},
		Outcomes: []domain.TaskOutcome{
			{Task: "Browser", Status: domain.TaskStatusSkipped, SkipReason: domain.SkipConditions, Detail: "time_range 08:00-19:00"},
			{Task: "VPN", Group: "system", Status: domain.TaskStatusVerified, Attempts: 1},
		},
		StartedAt:  start,
		FinishedAt: start.Add(4 * time.Second),
	})

	text := stdout.String()
	assert.Contains(t, text, "conditions: time_range 08:00-19:00")
	assert.Contains(t, text, "VERIFIED")
	assert.Contains(t, text, "All systems ready in 4s")
}

func TestOutput_HistoryPhases(t *testing.T) {
	var stdout bytes.Buffer
	out := NewOutput(&stdout, &bytes.Buffer{}, false, true)

	out.History([]domain.RunRecord{{
		Timestamp:       time.Now(),
		DurationSeconds: 9,
		Phases: map[string]domain.PhaseRecord{
			"system": {Duration: 2, Success: true},
			"apps":   {Duration: 7, Success: false},
		},
	}})

	text := stdout.String()
	assert.Contains(t, text, "PHASES")
	assert.Contains(t, text, "apps ✗ 7.0s, system ✓ 2.0s")
}

// --- Client Tests ---

type apiRunner struct {
	active bool
	err    error
}

func (r *apiRunner) Run(_ context.Context, req orchestrator.RunRequest) (*domain.RunReport, error) {
	if r.err != nil {
		return nil, r.err
	}
	now := time.Now()
	return &domain.RunReport{
		ID:         uuid.New(),
		Trigger:    req.Trigger,
		DryRun:     req.DryRun,
		Order:      []string{"VPN"},
		Outcomes:   []domain.TaskOutcome{{Task: "VPN", Status: domain.TaskStatusVerified}},
		StartedAt:  now,
		FinishedAt: now.Add(time.Second),
	}, nil
}

func (r *apiRunner) Plan(ctx context.Context, req orchestrator.RunRequest) (*domain.RunReport, error) {
	req.DryRun = true
	return r.Run(ctx, req)
}

func (r *apiRunner) Active() (domain.RunReport, string, bool) {
	return domain.RunReport{}, "VPN", r.active
}

func newAPIServer(t *testing.T, runner *apiRunner, store repo.Store) *Client {
	t.Helper()
	h := api.NewHandler(api.Config{
		Runner:  runner,
		History: store,
		Request: func() (orchestrator.RunRequest, error) {
			return orchestrator.RunRequest{}, nil
		},
		Gatherer: prometheus.NewRegistry(),
	})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		h.Wait()
	})
	return NewClient(srv.URL)
}

func TestClient(t *testing.T) {
	ctx := context.Background()
	store := repo.NewJSONLStore(filepath.Join(t.TempDir(), repo.JSONLFileName))
	rec := domain.RunRecord{ID: uuid.New(), Timestamp: time.Now(), Success: true, DurationSeconds: 7}
	require.NoError(t, store.Save(ctx, rec))

	client := newAPIServer(t, &apiRunner{}, store)

	records, err := client.ListRuns(ctx, 5)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, rec.ID, records[0].ID)

	got, err := client.GetRun(ctx, rec.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 7.0, got.DurationSeconds)

	_, err = client.GetRun(ctx, uuid.NewString())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	sum, err := client.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.TotalRuns)

	_, err = client.Current(ctx)
	assert.ErrorIs(t, err, ErrNoRunInProgress)

	report, err := client.StartRun(ctx, api.CreateRunRequest{Wait: true})
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.True(t, report.Success)
	assert.Equal(t, api.TriggerAPI, report.Trigger)

	report, err = client.StartRun(ctx, api.CreateRunRequest{})
	require.NoError(t, err)
	assert.Nil(t, report, "async run returns no report")

	sched, err := client.Schedule(ctx)
	require.NoError(t, err)
	assert.False(t, sched.Enabled)
}

func TestClient_Conflict(t *testing.T) {
	client := newAPIServer(t, &apiRunner{active: true}, repo.NopStore{})

	cur, err := client.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "VPN", cur.CurrentTask)

	_, err = client.StartRun(context.Background(), api.CreateRunRequest{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, string(api.CodeRunInProgress), apiErr.Code)
}
