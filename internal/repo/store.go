package repo

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/shaiso/launchpad/internal/domain"
)

// Store — хранилище истории run'ов.
type Store interface {
	// Save добавляет запись.
	Save(ctx context.Context, rec domain.RunRecord) error

	// List возвращает последние записи, новые первыми; limit <= 0 — все.
	List(ctx context.Context, limit int) ([]domain.RunRecord, error)

	// Get возвращает запись по ID (ErrNotFound, если её нет).
	Get(ctx context.Context, id uuid.UUID) (domain.RunRecord, error)

	// Summary считает агрегированную статистику по всей истории.
	Summary(ctx context.Context) (domain.RunSummary, error)

	// Close освобождает ресурсы.
	Close() error
}

// Options — параметры открытия хранилища.
type Options struct {
	// Driver — jsonl, sqlite, mysql, postgres или none.
	Driver string

	// DSN — строка подключения; для sqlite пусто — <Dir>/history.db.
	DSN string

	// Dir — каталог для metrics.jsonl и history.db.
	Dir string
}

// Имена файлов по умолчанию.
const (
	JSONLFileName  = "metrics.jsonl"
	SQLiteFileName = "history.db"
)

// Open открывает хранилище по драйверу.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", "jsonl":
		return NewJSONLStore(filepath.Join(opts.Dir, JSONLFileName)), nil
	case "sqlite":
		dsn := opts.DSN
		if dsn == "" {
			dsn = filepath.Join(opts.Dir, SQLiteFileName)
		}
		return OpenSQLite(ctx, dsn)
	case "mysql":
		return OpenMySQL(ctx, opts.DSN)
	case "postgres":
		return OpenPostgres(ctx, opts.DSN)
	case "none":
		return NopStore{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, opts.Driver)
	}
}

// NopStore — хранилище, которое ничего не сохраняет (driver: none).
type NopStore struct{}

func (NopStore) Save(context.Context, domain.RunRecord) error { return nil }

func (NopStore) List(context.Context, int) ([]domain.RunRecord, error) { return nil, nil }

func (NopStore) Get(context.Context, uuid.UUID) (domain.RunRecord, error) {
	return domain.RunRecord{}, ErrNotFound
}

func (NopStore) Summary(context.Context) (domain.RunSummary, error) { return domain.RunSummary{}, nil }

func (NopStore) Close() error { return nil }
