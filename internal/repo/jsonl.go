package repo

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/shaiso/launchpad/internal/domain"
)

// JSONLStore хранит историю в файле JSON Lines: одна запись на строку.
// Повреждённые строки при чтении пропускаются.
type JSONLStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONLStore создаёт JSONLStore. Файл создаётся при первой записи.
func NewJSONLStore(path string) *JSONLStore {
	return &JSONLStore{path: path}
}

// Path возвращает путь к файлу истории.
func (s *JSONLStore) Path() string {
	return s.path
}

// Save дописывает запись в конец файла.
func (s *JSONLStore) Save(_ context.Context, rec domain.RunRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// List возвращает последние limit записей, новые первыми.
func (s *JSONLStore) List(_ context.Context, limit int) ([]domain.RunRecord, error) {
	records, err := s.readAll()
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}

	out := make([]domain.RunRecord, len(records))
	for i := range records {
		out[len(records)-1-i] = records[i]
	}
	return out, nil
}

// Get ищет запись по ID.
func (s *JSONLStore) Get(_ context.Context, id uuid.UUID) (domain.RunRecord, error) {
	records, err := s.readAll()
	if err != nil {
		return domain.RunRecord{}, err
	}
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].ID == id {
			return records[i], nil
		}
	}
	return domain.RunRecord{}, ErrNotFound
}

// Summary считает статистику по всему файлу.
func (s *JSONLStore) Summary(_ context.Context) (domain.RunSummary, error) {
	records, err := s.readAll()
	if err != nil {
		return domain.RunSummary{}, err
	}
	return domain.Summarize(records), nil
}

// Close ничего не делает: файл открывается на каждую операцию.
func (s *JSONLStore) Close() error {
	return nil
}

// readAll читает записи в порядке записи.
func (s *JSONLStore) readAll() ([]domain.RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	var records []domain.RunRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec domain.RunRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return records, nil
}
