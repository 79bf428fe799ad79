package config

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/launchpad/internal/domain"
	"github.com/shaiso/launchpad/internal/engine"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const baseConfig = `
general:
  log_level: INFO
tasks:
  - name: VPN
    type: exec
    group: system
    command: rasdial
    health_check:
      method: process
      pattern: rasdial
      settle_sec: 1.5
  - name: Slack
    type: exec
    group: apps
    command: slack
    depends_on: [VPN]
    conditions:
      days: weekdays
    health_check:
      method: window_title
      pattern: Slack
      retries: 0
  - name: Music
    type: exec
    command: spotify
    enabled: false
`

// --- Load Tests ---

func TestLoad_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, baseConfig)

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.General.LogLevel)
	assert.Equal(t, "text", cfg.General.LogFormat)
	assert.Equal(t, 3, cfg.General.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.General.RetryInterval())
	assert.Equal(t, "fixed", cfg.General.Backoff)
	assert.Equal(t, "ordering", cfg.General.DependencyPolicy)
	assert.True(t, cfg.Network.Detect)
	assert.Equal(t, 10*time.Second, cfg.Network.Timeout())
	assert.True(t, cfg.Notifications.Enabled)
	assert.Equal(t, []string{"log", "desktop"}, cfg.Notifications.Sinks)
	assert.Equal(t, "jsonl", cfg.History.Driver)
	assert.Equal(t, path, cfg.Path)
	assert.Len(t, cfg.Tasks, 3)
}

func TestLoad_DomainTasks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, baseConfig)

	cfg, err := Load(path, "")
	require.NoError(t, err)

	tasks := cfg.DomainTasks()
	require.Len(t, tasks, 3)

	vpn := tasks[0]
	assert.Equal(t, domain.TaskKindExec, vpn.Kind)
	assert.True(t, vpn.Enabled)
	require.NotNil(t, vpn.HealthCheck)
	assert.Equal(t, 3, vpn.HealthCheck.Retries, "retries default to general.max_retries")
	assert.Equal(t, 1500*time.Millisecond, vpn.HealthCheck.Settle)
	assert.Equal(t, 4, vpn.MaxAttempts())

	slack := tasks[1]
	assert.Equal(t, []string{"VPN"}, slack.DependsOn)
	assert.Equal(t, "weekdays", slack.Conditions[domain.ConditionDays])
	assert.Equal(t, 1, slack.MaxAttempts(), "explicit retries: 0 keeps a single attempt")

	assert.False(t, tasks[2].Enabled)
	assert.Nil(t, tasks[2].HealthCheck)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, baseConfig)

	t.Setenv("LAUNCHPAD_GENERAL_LOG_LEVEL", "DEBUG")
	t.Setenv("LAUNCHPAD_GENERAL_DEPENDENCY_POLICY", "gated")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", cfg.General.LogLevel)
	assert.Equal(t, "gated", cfg.General.DependencyPolicy)
}

func TestLoad_Profile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, baseConfig)
	writeFile(t, filepath.Join(dir, "profiles", "evening.yaml"), `
general:
  log_level: WARN
tasks:
  - name: Music
    type: exec
    command: spotify
`)

	cfg, err := Load(path, "evening")
	require.NoError(t, err)

	assert.Equal(t, "evening", cfg.Profile)
	assert.Equal(t, "WARN", cfg.General.LogLevel)
	assert.Equal(t, 3, cfg.General.MaxRetries, "unset keys keep base values")
	require.Len(t, cfg.Tasks, 1, "profile task list replaces the base list")
	assert.Equal(t, "Music", cfg.Tasks[0].Name)
	assert.True(t, cfg.DomainTasks()[0].Enabled)
}

func TestLoad_ProfileNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, baseConfig)

	_, err := Load(path, "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProfileNotFound)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "tasks: [\n")

	_, err := Load(path, "")
	assert.ErrorIs(t, err, ErrConfig)
}

func TestLoad_TaskGraphErrors(t *testing.T) {
	tests := []struct {
		name    string
		tasks   string
		wantErr error
	}{
		{
			name: "missing dependency",
			tasks: `
  - name: Jira
    type: open
    path: https://jira.example.com
    depends_on: [Ghost]`,
			wantErr: engine.ErrMissingDependency,
		},
		{
			name: "cycle",
			tasks: `
  - name: A
    type: exec
    command: a
    depends_on: [B]
  - name: B
    type: exec
    command: b
    depends_on: [A]`,
			wantErr: engine.ErrCyclicDependency,
		},
		{
			name: "health check without pattern",
			tasks: `
  - name: A
    type: exec
    command: a
    health_check:
      method: port`,
			wantErr: engine.ErrInvalidHealthCheck,
		},
		{
			name: "malformed time range",
			tasks: `
  - name: A
    type: exec
    command: a
    conditions:
      time_range: "25:00-26:00"`,
			wantErr: engine.ErrInvalidCondition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			writeFile(t, path, "tasks:"+tt.tasks+"\n")

			_, err := Load(path, "")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfig)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoad_FieldErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		key  string
	}{
		{name: "log level", yaml: "general:\n  log_level: LOUD\n", key: "general.log_level"},
		{name: "backoff", yaml: "general:\n  backoff: random\n", key: "general.backoff"},
		{name: "policy", yaml: "general:\n  dependency_policy: strict\n", key: "general.dependency_policy"},
		{name: "history driver", yaml: "history:\n  driver: mongo\n", key: "history.driver"},
		{name: "postgres without dsn", yaml: "history:\n  driver: postgres\n", key: "history.dsn"},
		{name: "unknown sink", yaml: "notifications:\n  sinks: [pager]\n", key: "notifications.sinks"},
		{name: "redis without addr", yaml: "notifications:\n  sinks: [redis]\n", key: "notifications.redis_addr"},
		{name: "bad schedule", yaml: "daemon:\n  schedule: every morning\n", key: "daemon.schedule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			writeFile(t, path, tt.yaml)

			_, err := Load(path, "")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfig)

			var fe *FieldError
			require.True(t, errors.As(err, &fe), "expected FieldError, got %v", err)
			assert.Equal(t, tt.key, fe.Key)
		})
	}
}

// --- Profiles Tests ---

func TestListProfiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "work.yaml"), "")
	writeFile(t, filepath.Join(dir, "home.yml"), "")
	writeFile(t, filepath.Join(dir, "notes.txt"), "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	names, err := ListProfiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"home", "work"}, names)
}

func TestListProfiles_MissingDir(t *testing.T) {
	names, err := ListProfiles(filepath.Join(t.TempDir(), "none"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestProfilesDir(t *testing.T) {
	assert.Equal(t, filepath.Join("conf", "profiles"), ProfilesDir(filepath.Join("conf", "config.yaml"), ""))
	assert.Equal(t, "/abs/p", ProfilesDir("config.yaml", "/abs/p"))
}

// --- Render Tests ---

func TestWriteStarter_LoadsCleanly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "launchpad", "config.yaml")
	require.NoError(t, WriteStarter(path, false))

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Tasks)

	profiles, err := ListProfiles(ProfilesDir(path, cfg.General.ProfilesDir))
	require.NoError(t, err)
	assert.Equal(t, []string{"minimal"}, profiles)

	_, err = Load(path, "minimal")
	require.NoError(t, err)
}

func TestWriteStarter_NoOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "general: {}\n")

	err := WriteStarter(path, false)
	assert.ErrorIs(t, err, ErrExists)

	require.NoError(t, WriteStarter(path, true))
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, baseConfig)

	cfg, err := Load(path, "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, cfg))

	parsed, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, cfg.General, parsed.General)
	assert.Equal(t, cfg.DomainTasks(), parsed.DomainTasks())
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "projects"), expandHome("~/projects"))
	assert.Equal(t, "/opt/app", expandHome("/opt/app"))
	assert.Equal(t, "~user/x", expandHome("~user/x"))
}

func TestResolvePath(t *testing.T) {
	cfg := &Config{Path: filepath.Join("/etc", "launchpad", "config.yaml")}

	assert.Equal(t, filepath.Join("/etc", "launchpad", "logs"), cfg.ResolvePath("logs"))
	assert.Equal(t, "/var/log/launchpad", cfg.ResolvePath("/var/log/launchpad"))
	assert.Equal(t, "", cfg.ResolvePath(""))

	bare := &Config{}
	assert.Equal(t, "logs", bare.ResolvePath("logs"))
}

// --- Watcher Tests ---

func TestWatcher_DebouncedReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "tasks: []\n")

	changes := make(chan struct{}, 10)
	w, err := NewWatcher(WatcherConfig{
		Paths:    []string{path},
		OnChange: func() { changes <- struct{}{} },
		Debounce: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Даём watcher'у подписаться на каталог.
	time.Sleep(100 * time.Millisecond)

	writeFile(t, filepath.Join(dir, "unrelated.txt"), "x")
	for i := 0; i < 3; i++ {
		writeFile(t, path, "tasks: []\n# edit\n")
	}

	select {
	case <-changes:
	case <-time.After(3 * time.Second):
		t.Fatal("OnChange was not called")
	}

	select {
	case <-changes:
		t.Error("burst of writes should produce a single reload")
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-done)
}

func TestNewWatcher_Validation(t *testing.T) {
	_, err := NewWatcher(WatcherConfig{OnChange: func() {}})
	assert.Error(t, err)

	_, err = NewWatcher(WatcherConfig{Paths: []string{"config.yaml"}})
	assert.Error(t, err)
}
