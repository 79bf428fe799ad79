package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/launchpad/internal/domain"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS run_history (
	id               UUID PRIMARY KEY,
	started_at       TIMESTAMPTZ NOT NULL,
	profile          TEXT NOT NULL DEFAULT '',
	trigger_src      TEXT NOT NULL DEFAULT '',
	duration_seconds DOUBLE PRECISION NOT NULL,
	success          BOOLEAN NOT NULL,
	cancelled        BOOLEAN NOT NULL DEFAULT FALSE,
	errors           JSONB NOT NULL DEFAULT '[]',
	retries          JSONB NOT NULL DEFAULT '{}',
	phases           JSONB NOT NULL DEFAULT '{}'
);

ALTER TABLE run_history ADD COLUMN IF NOT EXISTS phases JSONB NOT NULL DEFAULT '{}';

CREATE INDEX IF NOT EXISTS idx_run_history_started ON run_history(started_at DESC);
`

// PostgresStore хранит историю в PostgreSQL через pgxpool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPool создаёт пул соединений и проверяет доступность БД.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 4
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("new pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

// OpenPostgres подключается к PostgreSQL и создаёт таблицу истории.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := NewPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Save добавляет запись.
func (s *PostgresStore) Save(ctx context.Context, rec domain.RunRecord) error {
	d, err := marshalDetails(rec)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO run_history (id, started_at, profile, trigger_src, duration_seconds,
		                         success, cancelled, errors, retries, phases)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb, $10::jsonb)
	`
	_, err = s.pool.Exec(ctx, query,
		rec.ID,
		rec.Timestamp,
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

const pgSelectRecord = `
	SELECT id, started_at, profile, trigger_src, duration_seconds,
	       success, cancelled, errors::text, retries::text, phases::text
	FROM run_history
`

// List возвращает последние записи, новые первыми.
func (s *PostgresStore) List(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	query := pgSelectRecord + `
		ORDER BY started_at DESC
		LIMIT $1
	`
	var lim *int
	if limit > 0 {
		lim = &limit
	}

	rows, err := s.pool.Query(ctx, query, lim)
	if err != nil {
		return nil, fmt.Errorf("list run records: %w", err)
	}
	defer rows.Close()

	var records []domain.RunRecord
	for rows.Next() {
		rec, err := scanPgRecord(rows)
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
func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (domain.RunRecord, error) {
	rec, err := scanPgRecord(s.pool.QueryRow(ctx, pgSelectRecord+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RunRecord{}, ErrNotFound
	}
	return rec, err
}

// Summary считает статистику средствами SQL.
func (s *PostgresStore) Summary(ctx context.Context) (domain.RunSummary, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE success),
		       COALESCE(AVG(duration_seconds), 0),
		       MAX(started_at)
		FROM run_history
	`
	var (
		total, ok int
		avg       float64
		last      *time.Time
	)
	if err := s.pool.QueryRow(ctx, query).Scan(&total, &ok, &avg, &last); err != nil {
		return domain.RunSummary{}, fmt.Errorf("summarize runs: %w", err)
	}

	var lastMillis int64
	if last != nil {
		lastMillis = last.UnixMilli()
	}
	return buildSummary(total, ok, avg, lastMillis), nil
}

// Close закрывает пул.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanPgRecord(row pgx.Row) (domain.RunRecord, error) {
	var (
		rec domain.RunRecord
		d   details
	)
	err := row.Scan(&rec.ID, &rec.Timestamp, &rec.Profile, &rec.Trigger, &rec.DurationSeconds,
		&rec.Success, &rec.Cancelled, &d.errors, &d.retries, &d.phases)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan run record: %w", err)
	}
	if err := d.unmarshal(&rec); err != nil {
		return rec, err
	}
	return rec, nil
}
