package repo

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/launchpad/internal/domain"
)

func record(ts time.Time, success bool, duration float64) domain.RunRecord {
	rec := domain.RunRecord{
		ID:              uuid.New(),
		Timestamp:       ts,
		Profile:         "work",
		Trigger:         "cli",
		DurationSeconds: duration,
		Errors:          []string{},
		Retries:         map[string]int{},
		Success:         success,
		Phases: map[string]domain.PhaseRecord{
			"system": {Duration: 1.5, Success: true},
			"apps":   {Duration: duration - 1.5, Success: success},
		},
	}
	if !success {
		rec.Errors = []string{"Slack: launched, not verified: not ready"}
		rec.Retries = map[string]int{"Slack": 2}
	}
	return rec
}

// storeContract прогоняет общие проверки для любого Store.
func storeContract(t *testing.T, s Store) {
	ctx := context.Background()
	base := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	empty, err := s.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalRuns)
	assert.Nil(t, empty.LastRun)

	first := record(base, true, 10)
	second := record(base.Add(time.Hour), false, 20)
	third := record(base.Add(2*time.Hour), true, 30)
	for _, rec := range []domain.RunRecord{first, second, third} {
		require.NoError(t, s.Save(ctx, rec))
	}

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, third.ID, all[0].ID, "newest first")
	assert.Equal(t, first.ID, all[2].ID)

	latest, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, third.ID, latest[0].ID)
	assert.Equal(t, second.ID, latest[1].ID)

	got, err := s.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.False(t, got.Success)
	assert.Equal(t, "work", got.Profile)
	assert.Equal(t, "cli", got.Trigger)
	assert.Equal(t, second.Errors, got.Errors)
	assert.Equal(t, 2, got.Retries["Slack"])
	assert.Equal(t, second.Phases, got.Phases)
	assert.True(t, second.Timestamp.Equal(got.Timestamp))

	_, err = s.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	sum, err := s.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.TotalRuns)
	assert.InDelta(t, 66.666, sum.SuccessRate, 0.01)
	assert.InDelta(t, 20.0, sum.AvgDuration, 0.001)
	require.NotNil(t, sum.LastRun)
	assert.True(t, third.Timestamp.Equal(*sum.LastRun))
}

// --- JSONLStore Tests ---

func TestJSONLStore_Contract(t *testing.T) {
	s := NewJSONLStore(filepath.Join(t.TempDir(), "logs", JSONLFileName))
	defer s.Close()
	storeContract(t, s)
}

func TestJSONLStore_SkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), JSONLFileName)
	s := NewJSONLStore(path)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, record(time.Now(), true, 5)))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, s.Save(ctx, record(time.Now(), false, 7)))

	records, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestJSONLStore_MissingFile(t *testing.T) {
	s := NewJSONLStore(filepath.Join(t.TempDir(), "absent.jsonl"))

	records, err := s.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestJSONLStore_LineFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), JSONLFileName)
	s := NewJSONLStore(path)
	require.NoError(t, s.Save(context.Background(), record(time.Now(), true, 3.5)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"overall_success":true`)
	assert.Contains(t, string(data), `"duration_seconds":3.5`)
	assert.Contains(t, string(data), `"phases":{"apps":{"duration":2,"success":true}`)
}

// --- SQLStore Tests ---

func TestSQLiteStore_Contract(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "data", SQLiteFileName))
	require.NoError(t, err)
	defer s.Close()
	storeContract(t, s)
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), SQLiteFileName)

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	rec := record(time.Now(), true, 1)
	require.NoError(t, s.Save(ctx, rec))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
}

func TestSQLiteStore_MigratesPhasesColumn(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), SQLiteFileName)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE run_history (
			id               TEXT PRIMARY KEY,
			started_at       INTEGER NOT NULL,
			profile          TEXT NOT NULL DEFAULT '',
			trigger_src      TEXT NOT NULL DEFAULT '',
			duration_seconds REAL NOT NULL,
			success          INTEGER NOT NULL,
			cancelled        INTEGER NOT NULL DEFAULT 0,
			errors_json      TEXT NOT NULL,
			retries_json     TEXT NOT NULL
		)`)
	require.NoError(t, err)
	legacy := uuid.New()
	_, err = db.Exec(`INSERT INTO run_history VALUES (?, ?, 'work', 'cli', 4, 1, 0, '[]', '{}')`,
		legacy.String(), time.Now().UnixMilli())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	old, err := s.Get(ctx, legacy)
	require.NoError(t, err)
	assert.Nil(t, old.Phases)

	rec := record(time.Now(), false, 6)
	require.NoError(t, s.Save(ctx, rec))
	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Phases, got.Phases)
}

// --- Open Tests ---

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, Options{Driver: "jsonl", Dir: dir})
	require.NoError(t, err)
	assert.IsType(t, &JSONLStore{}, s)
	assert.Equal(t, filepath.Join(dir, JSONLFileName), s.(*JSONLStore).Path())

	s, err = Open(ctx, Options{Driver: "sqlite", Dir: dir})
	require.NoError(t, err)
	assert.IsType(t, &SQLStore{}, s)
	require.NoError(t, s.Close())
	assert.FileExists(t, filepath.Join(dir, SQLiteFileName))

	s, err = Open(ctx, Options{Driver: "none"})
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, record(time.Now(), true, 1)))
	records, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = Open(ctx, Options{Driver: "mongo"})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}
