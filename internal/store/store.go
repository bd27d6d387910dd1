package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/noteport/internal/config"
	"github.com/BuzzLyutic/noteport/internal/model"
)

var (
	ErrUnavailable = errors.New("store unavailable")
)

// Store — живое хранилище задач и заметок. Merge-движок получает снимок,
// а результат слияния дописывается одним вызовом Append.
type Store interface {
	Snapshot(ctx context.Context) (model.Snapshot, error)
	Append(ctx context.Context, tasks []model.Task, notes []model.Note) error
	Ping(ctx context.Context) error
}

// New выбирает бэкенд по конфигурации: json-файл в каталоге данных или
// Postgres.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.StoreBackend {
	case "", "json":
		return NewJSONStore(filepath.Join(cfg.DataDir, "store.json"), logger)
	case "postgres", "postgresql":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return NewPGStore(pool, logger), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.StoreBackend)
	}
}
