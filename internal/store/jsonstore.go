package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/noteport/internal/model"
)

// JSONStore держит снимок в памяти и сбрасывает его в один json-файл
// в форме родного экспорта {tasks, notes}.
type JSONStore struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
	snap   model.Snapshot
}

func NewJSONStore(path string, logger *zap.Logger) (*JSONStore, error) {
	s := &JSONStore{path: path, logger: logger}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Первого запуска файл еще нет — пустое хранилище.
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		if err := json.Unmarshal(data, &s.snap); err != nil {
			return nil, fmt.Errorf("%w: corrupt store file %s: %v", ErrUnavailable, path, err)
		}
	}
	return s, nil
}

func (s *JSONStore) Snapshot(ctx context.Context) (model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.Snapshot{
		Tasks: append([]model.Task(nil), s.snap.Tasks...),
		Notes: append([]model.Note(nil), s.snap.Notes...),
	}, nil
}

func (s *JSONStore) Append(ctx context.Context, tasks []model.Task, notes []model.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := model.Snapshot{
		Tasks: append(append([]model.Task(nil), s.snap.Tasks...), tasks...),
		Notes: append(append([]model.Note(nil), s.snap.Notes...), notes...),
	}

	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// Запись через временный файл и rename: наполовину записанного
	// хранилища на диске не бывает.
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.snap = next
	s.logger.Debug("store saved",
		zap.Int("tasks", len(next.Tasks)),
		zap.Int("notes", len(next.Notes)),
	)
	return nil
}

func (s *JSONStore) Ping(ctx context.Context) error { return nil }
