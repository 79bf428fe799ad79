package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaiso/launchpad/internal/domain"
	"github.com/shaiso/launchpad/internal/orchestrator"
	"github.com/shaiso/launchpad/internal/repo"
)

type fakeRunner struct {
	mu      sync.Mutex
	reqs    []orchestrator.RunRequest
	err     error
	active  bool
	current string
	done    chan struct{}
}

func (f *fakeRunner) Run(_ context.Context, req orchestrator.RunRequest) (*domain.RunReport, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.done != nil {
		defer close(f.done)
	}
	if f.err != nil {
		return nil, f.err
	}
	start := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	status := domain.TaskStatusVerified
	if req.DryRun {
		status = domain.TaskStatusPending
	}
	return &domain.RunReport{
		ID:         uuid.New(),
		Trigger:    req.Trigger,
		DryRun:     req.DryRun,
		Order:      []string{"VPN"},
		Outcomes:   []domain.TaskOutcome{{Task: "VPN", Status: status}},
		StartedAt:  start,
		FinishedAt: start.Add(3 * time.Second),
	}, nil
}

func (f *fakeRunner) Plan(ctx context.Context, req orchestrator.RunRequest) (*domain.RunReport, error) {
	req.DryRun = true
	return f.Run(ctx, req)
}

func (f *fakeRunner) Active() (domain.RunReport, string, bool) {
	if !f.active {
		return domain.RunReport{}, "", false
	}
	return domain.RunReport{ID: uuid.New(), StartedAt: time.Now()}, f.current, true
}

func (f *fakeRunner) requests() []orchestrator.RunRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]orchestrator.RunRequest(nil), f.reqs...)
}

type fakeHistory struct {
	records []domain.RunRecord
}

func (f *fakeHistory) List(_ context.Context, limit int) ([]domain.RunRecord, error) {
	if limit > 0 && limit < len(f.records) {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func (f *fakeHistory) Get(_ context.Context, id uuid.UUID) (domain.RunRecord, error) {
	for _, rec := range f.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return domain.RunRecord{}, repo.ErrNotFound
}

func (f *fakeHistory) Summary(context.Context) (domain.RunSummary, error) {
	return domain.Summarize(f.records), nil
}

type fakeSchedule struct{}

func (fakeSchedule) Expr() string                  { return "0 9 * * 1-5" }
func (fakeSchedule) Next(from time.Time) time.Time { return from.Add(time.Hour) }
func (fakeSchedule) LastRun() time.Time            { return time.Time{} }

func newTestServer(t *testing.T, runner *fakeRunner, history *fakeHistory) *httptest.Server {
	t.Helper()
	h := NewHandler(Config{
		Runner:  runner,
		History: history,
		Request: func() (orchestrator.RunRequest, error) {
			return orchestrator.RunRequest{Profile: "work", Trigger: "cli"}, nil
		},
		Schedule: fakeSchedule{},
		Gatherer: prometheus.NewRegistry(),
	})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		h.Wait()
	})
	return srv
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var body struct {
		Data T `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body.Data
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

// --- Runs Tests ---

func TestListRuns(t *testing.T) {
	history := &fakeHistory{records: []domain.RunRecord{
		{ID: uuid.New(), Success: true, DurationSeconds: 10},
		{ID: uuid.New(), Success: false, DurationSeconds: 20},
	}}
	srv := newTestServer(t, &fakeRunner{}, history)

	resp, err := http.Get(srv.URL + "/api/v1/runs?limit=1")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	records := decode[[]domain.RunRecord](t, resp)
	if len(records) != 1 || records[0].ID != history.records[0].ID {
		t.Errorf("records = %+v", records)
	}

	resp, _ = http.Get(srv.URL + "/api/v1/runs?limit=abc")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid limit status = %d, want 400", resp.StatusCode)
	}
}

func TestGetRun(t *testing.T) {
	rec := domain.RunRecord{ID: uuid.New(), Success: true}
	srv := newTestServer(t, &fakeRunner{}, &fakeHistory{records: []domain.RunRecord{rec}})

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"found", "/api/v1/runs/" + rec.ID.String(), http.StatusOK},
		{"not found", "/api/v1/runs/" + uuid.NewString(), http.StatusNotFound},
		{"bad id", "/api/v1/runs/xyz", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}

func TestGetSummary(t *testing.T) {
	history := &fakeHistory{records: []domain.RunRecord{
		{ID: uuid.New(), Success: true, DurationSeconds: 10, Timestamp: time.Now()},
		{ID: uuid.New(), Success: false, DurationSeconds: 30, Timestamp: time.Now()},
	}}
	srv := newTestServer(t, &fakeRunner{}, history)

	resp, err := http.Get(srv.URL + "/api/v1/runs/summary")
	if err != nil {
		t.Fatal(err)
	}
	sum := decode[domain.RunSummary](t, resp)
	if sum.TotalRuns != 2 || sum.SuccessRate != 50 || sum.AvgDuration != 20 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestGetCurrentRun(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{}, &fakeHistory{})
	resp, _ := http.Get(srv.URL + "/api/v1/runs/current")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("idle status = %d, want 404", resp.StatusCode)
	}

	srv = newTestServer(t, &fakeRunner{active: true, current: "VPN"}, &fakeHistory{})
	resp, _ = http.Get(srv.URL + "/api/v1/runs/current")
	cur := decode[CurrentRunResponse](t, resp)
	if cur.CurrentTask != "VPN" {
		t.Errorf("CurrentTask = %q, want VPN", cur.CurrentTask)
	}
}

func TestCreateRun_Wait(t *testing.T) {
	runner := &fakeRunner{}
	srv := newTestServer(t, runner, &fakeHistory{})

	resp := post(t, srv.URL+"/api/v1/runs", CreateRunRequest{Wait: true, SkipGroups: []string{"browsers"}})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	report := decode[ReportResponse](t, resp)
	if !report.Success || report.Trigger != TriggerAPI {
		t.Errorf("report = %+v", report)
	}
	if report.DurationSeconds != 3 {
		t.Errorf("DurationSeconds = %v, want 3", report.DurationSeconds)
	}

	reqs := runner.requests()
	if len(reqs) != 1 || reqs[0].Profile != "work" || reqs[0].SkipGroups[0] != "browsers" {
		t.Errorf("requests = %+v", reqs)
	}
}

func TestCreateRun_Async(t *testing.T) {
	runner := &fakeRunner{done: make(chan struct{})}
	srv := newTestServer(t, runner, &fakeHistory{})

	resp := post(t, srv.URL+"/api/v1/runs", CreateRunRequest{})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	resp.Body.Close()

	select {
	case <-runner.done:
	case <-time.After(2 * time.Second):
		t.Fatal("background run did not start")
	}
}

func TestCreateRun_Errors(t *testing.T) {
	tests := []struct {
		name   string
		runner *fakeRunner
		body   CreateRunRequest
		status int
	}{
		{"in progress sync", &fakeRunner{err: orchestrator.ErrRunInProgress}, CreateRunRequest{Wait: true}, http.StatusConflict},
		{"in progress async", &fakeRunner{active: true}, CreateRunRequest{}, http.StatusConflict},
		{"invalid config", &fakeRunner{err: orchestrator.ErrInvalidConfig}, CreateRunRequest{Wait: true}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.runner, &fakeHistory{})
			resp := post(t, srv.URL+"/api/v1/runs", tt.body)
			resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}

// --- Plan Tests ---

func TestGetPlan(t *testing.T) {
	runner := &fakeRunner{}
	srv := newTestServer(t, runner, &fakeHistory{})

	resp, err := http.Get(srv.URL + "/api/v1/plan?skip_group=apps,browsers&only_group=system")
	if err != nil {
		t.Fatal(err)
	}
	report := decode[ReportResponse](t, resp)
	if !report.DryRun {
		t.Error("plan should be a dry run")
	}

	reqs := runner.requests()
	if len(reqs) != 1 {
		t.Fatalf("requests = %d", len(reqs))
	}
	if len(reqs[0].SkipGroups) != 2 || reqs[0].OnlyGroups[0] != "system" {
		t.Errorf("groups = %v / %v", reqs[0].SkipGroups, reqs[0].OnlyGroups)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList([]string{"a, b", "", "c"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("splitList() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitList()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// --- Service Tests ---

func TestHealthAndSchedule(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{}, &fakeHistory{})

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	var health HealthResponse
	json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()
	if health.Status != "ok" || health.Running {
		t.Errorf("health = %+v", health)
	}

	resp, _ = http.Get(srv.URL + "/api/v1/schedule")
	sched := decode[ScheduleResponse](t, resp)
	if !sched.Enabled || sched.Expr != "0 9 * * 1-5" || sched.NextRun == nil || sched.LastRun != nil {
		t.Errorf("schedule = %+v", sched)
	}

	resp, _ = http.Get(srv.URL + "/metrics")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/metrics status = %d", resp.StatusCode)
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(headerRequestID)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rec.Header().Get(headerRequestID) != seen {
		t.Errorf("generated id = %q, response header = %q", seen, rec.Header().Get(headerRequestID))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerRequestID, "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get(headerRequestID) != "abc" {
		t.Errorf("client id not propagated: %q", rec.Header().Get(headerRequestID))
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
