package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/noteport/internal/blobstore"
	"github.com/BuzzLyutic/noteport/internal/merge"
	"github.com/BuzzLyutic/noteport/internal/model"
	"github.com/BuzzLyutic/noteport/internal/normalize"
	"github.com/BuzzLyutic/noteport/internal/store"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrUnknownFormat = errors.New("unknown import format")
)

// ImportService — протокол preview/apply поверх нормализаторов и
// merge-движка. Preview дешевый и ничего не меняет, Apply фиксирует.
type ImportService struct {
	store  store.Store
	blobs  *blobstore.Store
	merger *merge.Engine
	logger *zap.Logger

	// Сериализует apply: два слияния не должны наперегонки выделять id
	// из одного хранилища.
	mu sync.Mutex
}

func NewImportService(st store.Store, blobs *blobstore.Store, logger *zap.Logger) *ImportService {
	return &ImportService{
		store:  st,
		blobs:  blobs,
		merger: merge.New(logger),
		logger: logger,
	}
}

// Preview считает, что добавил бы apply, и ищет коллизии. Блобы при этом
// не пишутся, идентификаторы не выделяются — прогон можно повторять.
func (s *ImportService) Preview(ctx context.Context, format, path string) (model.PreviewReport, error) {
	incoming, err := s.normalizeSource(format, path, blobstore.Null{})
	if err != nil {
		return model.PreviewReport{}, err
	}

	current, err := s.store.Snapshot(ctx)
	if err != nil {
		return model.PreviewReport{}, err
	}
	return s.merger.Preview(incoming, current), nil
}

// Apply выполняет импорт целиком: нормализация, слияние, durable-запись.
func (s *ImportService) Apply(ctx context.Context, format, path string, opts model.ApplyOptions) (model.MergeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	incoming, err := s.normalizeSource(format, path, s.blobs)
	if err != nil {
		return model.MergeResult{}, err
	}

	if opts.DefaultColorTag != "" {
		for i := range incoming.Notes {
			if incoming.Notes[i].ColorTag == "" {
				incoming.Notes[i].ColorTag = opts.DefaultColorTag
			}
		}
	}

	current, err := s.store.Snapshot(ctx)
	if err != nil {
		return model.MergeResult{}, err
	}

	_, result := s.merger.Merge(incoming, current)

	if err := s.store.Append(ctx, result.Tasks, result.Notes); err != nil {
		return model.MergeResult{}, err
	}

	s.logger.Info("import applied",
		zap.String("format", format),
		zap.String("source", path),
		zap.Int("tasks", result.ImportedTasks),
		zap.Int("notes", result.ImportedNotes),
	)
	return result, nil
}

// Export отдает снимок хранилища в родной форме {tasks, notes}.
func (s *ImportService) Export(ctx context.Context) (model.Snapshot, error) {
	return s.store.Snapshot(ctx)
}

// StoreAttachment кладет байты в контент-адресуемое хранилище и возвращает
// локатор.
func (s *ImportService) StoreAttachment(ctx context.Context, data []byte, mediaType, name string) (string, error) {
	return s.blobs.Save(data, mediaType, name)
}

func (s *ImportService) normalizeSource(format, path string, sink blobstore.Sink) (model.Snapshot, error) {
	var snap model.Snapshot

	data, err := os.ReadFile(path)
	if err != nil {
		return snap, fmt.Errorf("%w: cannot read source %s: %v", ErrValidation, path, err)
	}

	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "enex", "xml":
		notes, err := normalize.FromENEX(data, sink)
		if err != nil {
			return snap, err
		}
		snap.Notes = notes
		return snap, nil
	case "html", "htm":
		note, err := normalize.FromHTML(data, filepath.Dir(path))
		if err != nil {
			return snap, err
		}
		snap.Notes = []model.Note{note}
		return snap, nil
	case "json":
		return normalize.FromJSON(data)
	case "csv":
		return normalize.FromCSV(data)
	default:
		return snap, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}
