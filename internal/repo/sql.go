package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/shaiso/launchpad/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS run_history (
	id               TEXT PRIMARY KEY,
	started_at       INTEGER NOT NULL,
	profile          TEXT NOT NULL DEFAULT '',
	trigger_src      TEXT NOT NULL DEFAULT '',
	duration_seconds REAL NOT NULL,
	success          INTEGER NOT NULL,
	cancelled        INTEGER NOT NULL DEFAULT 0,
	errors_json      TEXT NOT NULL,
	retries_json     TEXT NOT NULL,
	phases_json      TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_run_history_started ON run_history(started_at DESC);
`

var mysqlSchema = []string{`
CREATE TABLE IF NOT EXISTS run_history (
	id               CHAR(36) PRIMARY KEY,
	started_at       BIGINT NOT NULL,
	profile          VARCHAR(128) NOT NULL DEFAULT '',
	trigger_src      VARCHAR(32) NOT NULL DEFAULT '',
	duration_seconds DOUBLE NOT NULL,
	success          BOOLEAN NOT NULL,
	cancelled        BOOLEAN NOT NULL DEFAULT FALSE,
	errors_json      TEXT NOT NULL,
	retries_json     TEXT NOT NULL,
	phases_json      TEXT NULL,
	INDEX idx_run_history_started (started_at)
)`}

// SQLStore хранит историю в SQLite или MySQL через database/sql.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// OpenSQLite открывает (и при необходимости создаёт) файл SQLite.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &SQLStore{db: db, driver: "sqlite3"}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// OpenMySQL подключается к MySQL по DSN go-sql-driver.
func OpenMySQL(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &SQLStore{db: db, driver: "mysql"}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	stmts := []string{sqliteSchema}
	if s.driver == "mysql" {
		stmts = mysqlSchema
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	// Таблицы, созданные до появления phases_json, дополняются колонкой.
	exists, err := s.hasColumn(ctx, "phases_json")
	if err != nil {
		return fmt.Errorf("inspect run_history: %w", err)
	}
	if !exists {
		ddl := `ALTER TABLE run_history ADD COLUMN phases_json TEXT NOT NULL DEFAULT '{}'`
		if s.driver == "mysql" {
			ddl = `ALTER TABLE run_history ADD COLUMN phases_json TEXT NULL`
		}
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("add phases_json: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) hasColumn(ctx context.Context, column string) (bool, error) {
	query := `SELECT COUNT(*) FROM pragma_table_info('run_history') WHERE name = ?`
	if s.driver == "mysql" {
		query = `
			SELECT COUNT(*) FROM information_schema.columns
			WHERE table_schema = DATABASE() AND table_name = 'run_history' AND column_name = ?
		`
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, column).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Save добавляет запись.
func (s *SQLStore) Save(ctx context.Context, rec domain.RunRecord) error {
	d, err := marshalDetails(rec)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO run_history (id, started_at, profile, trigger_src, duration_seconds,
		                         success, cancelled, errors_json, retries_json, phases_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		rec.ID.String(),
		rec.Timestamp.UnixMilli(),
		rec.Profile,
		rec.Trigger,
		rec.DurationSeconds,
		rec.Success,
		rec.Cancelled,
		d.errors,
		d.retries,
		d.phases,
	)
	if err != nil {
		return fmt.Errorf("insert run record: %w", err)
	}
	return nil
}

const selectRecord = `
	SELECT id, started_at, profile, trigger_src, duration_seconds,
	       success, cancelled, errors_json, retries_json, COALESCE(phases_json, '{}')
	FROM run_history
`

// List возвращает последние записи, новые первыми.
func (s *SQLStore) List(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	query := selectRecord + ` ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list run records: %w", err)
	}
	defer rows.Close()

	var records []domain.RunRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run records: %w", err)
	}
	return records, nil
}

// Get возвращает запись по ID.
func (s *SQLStore) Get(ctx context.Context, id uuid.UUID) (domain.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, selectRecord+` WHERE id = ?`, id.String())
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RunRecord{}, ErrNotFound
	}
	return rec, err
}

// Summary считает статистику средствами SQL.
func (s *SQLStore) Summary(ctx context.Context) (domain.RunSummary, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0),
		       COALESCE(AVG(duration_seconds), 0),
		       COALESCE(MAX(started_at), 0)
		FROM run_history
	`
	var (
		total, ok int
		avg       float64
		last      int64
	)
	if err := s.db.QueryRowContext(ctx, query).Scan(&total, &ok, &avg, &last); err != nil {
		return domain.RunSummary{}, fmt.Errorf("summarize runs: %w", err)
	}
	return buildSummary(total, ok, avg, last), nil
}

// Close закрывает соединение.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (domain.RunRecord, error) {
	var (
		rec       domain.RunRecord
		id        string
		startedAt int64
		d         details
	)
	err := row.Scan(&id, &startedAt, &rec.Profile, &rec.Trigger, &rec.DurationSeconds,
		&rec.Success, &rec.Cancelled, &d.errors, &d.retries, &d.phases)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan run record: %w", err)
	}

	if rec.ID, err = uuid.Parse(strings.TrimSpace(id)); err != nil {
		return rec, fmt.Errorf("parse run id: %w", err)
	}
	rec.Timestamp = time.UnixMilli(startedAt)
	if err := d.unmarshal(&rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// details — JSON-колонки записи истории.
type details struct {
	errors, retries, phases string
}

func marshalDetails(rec domain.RunRecord) (details, error) {
	errs := rec.Errors
	if errs == nil {
		errs = []string{}
	}
	retries := rec.Retries
	if retries == nil {
		retries = map[string]int{}
	}
	phases := rec.Phases
	if phases == nil {
		phases = map[string]domain.PhaseRecord{}
	}

	var d details
	for _, col := range []struct {
		name string
		v    any
		dst  *string
	}{
		{"errors", errs, &d.errors},
		{"retries", retries, &d.retries},
		{"phases", phases, &d.phases},
	} {
		data, err := json.Marshal(col.v)
		if err != nil {
			return details{}, fmt.Errorf("marshal %s: %w", col.name, err)
		}
		*col.dst = string(data)
	}
	return d, nil
}

func (d details) unmarshal(rec *domain.RunRecord) error {
	if err := json.Unmarshal([]byte(d.errors), &rec.Errors); err != nil {
		return fmt.Errorf("unmarshal errors: %w", err)
	}
	if err := json.Unmarshal([]byte(d.retries), &rec.Retries); err != nil {
		return fmt.Errorf("unmarshal retries: %w", err)
	}
	if err := json.Unmarshal([]byte(d.phases), &rec.Phases); err != nil {
		return fmt.Errorf("unmarshal phases: %w", err)
	}
	if len(rec.Phases) == 0 {
		rec.Phases = nil
	}
	return nil
}

func buildSummary(total, ok int, avg float64, lastMillis int64) domain.RunSummary {
	var s domain.RunSummary
	if total == 0 {
		return s
	}
	last := time.UnixMilli(lastMillis)
	s.TotalRuns = total
	s.SuccessRate = float64(ok) / float64(total) * 100
	s.AvgDuration = avg
	s.LastRun = &last
	return s
}
