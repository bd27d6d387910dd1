package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/noteport/internal/model"
)

// PGStore — бэкенд на Postgres. Идентификаторы выдает merge-движок,
// поэтому вставки идут с явными id.
type PGStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPGStore(pool *pgxpool.Pool, logger *zap.Logger) *PGStore {
	return &PGStore{pool: pool, logger: logger}
}

func (s *PGStore) Snapshot(ctx context.Context) (model.Snapshot, error) {
	var snap model.Snapshot

	rows, err := s.pool.Query(ctx, `
		SELECT id, title, description, status, priority, category_id,
		       linked_note_id, created_at, updated_at, completed_at
		FROM tasks
		ORDER BY id
	`)
	if err != nil {
		return snap, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority,
			&t.CategoryID, &t.LinkedNoteID, &t.CreatedAt, &t.UpdatedAt, &t.CompletedAt); err != nil {
			return snap, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		snap.Tasks = append(snap.Tasks, t)
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	noteRows, err := s.pool.Query(ctx, `
		SELECT id, title, content, format, tags, linked_task_ids, inline_images,
		       color_tag, pinned, archived, created_at, updated_at
		FROM notes
		ORDER BY id
	`)
	if err != nil {
		return snap, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer noteRows.Close()
	byID := make(map[int64]int)
	for noteRows.Next() {
		var n model.Note
		if err := noteRows.Scan(&n.ID, &n.Title, &n.Content, &n.Format, &n.Tags,
			&n.LinkedTaskIDs, &n.InlineImages, &n.ColorTag, &n.Pinned, &n.Archived,
			&n.CreatedAt, &n.UpdatedAt); err != nil {
			return snap, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		byID[n.ID] = len(snap.Notes)
		snap.Notes = append(snap.Notes, n)
	}
	if err := noteRows.Err(); err != nil {
		return snap, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	attRows, err := s.pool.Query(ctx, `
		SELECT id, note_id, kind, url, name, size, media_type, created_at
		FROM attachments
		ORDER BY created_at
	`)
	if err != nil {
		return snap, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer attRows.Close()
	for attRows.Next() {
		var a model.Attachment
		if err := attRows.Scan(&a.ID, &a.NoteID, &a.Kind, &a.URL, &a.Name,
			&a.Size, &a.MediaType, &a.CreatedAt); err != nil {
			return snap, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if i, ok := byID[a.NoteID]; ok {
			snap.Notes[i].Attachments = append(snap.Notes[i].Attachments, a)
		}
	}
	if err := attRows.Err(); err != nil {
		return snap, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return snap, nil
}

// Append пишет результат слияния одной транзакцией — фиксация либо
// происходит целиком, либо не происходит вовсе.
func (s *PGStore) Append(ctx context.Context, tasks []model.Task, notes []model.Note) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer tx.Rollback(ctx)

	for _, t := range tasks {
		if _, err := tx.Exec(ctx, `
			INSERT INTO tasks (id, title, description, status, priority, category_id,
			                   linked_note_id, created_at, updated_at, completed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, t.ID, t.Title, t.Description, t.Status, t.Priority, t.CategoryID,
			t.LinkedNoteID, t.CreatedAt, t.UpdatedAt, t.CompletedAt); err != nil {
			return fmt.Errorf("%w: insert task %d: %v", ErrUnavailable, t.ID, err)
		}
	}

	for _, n := range notes {
		if _, err := tx.Exec(ctx, `
			INSERT INTO notes (id, title, content, format, tags, linked_task_ids,
			                   inline_images, color_tag, pinned, archived, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, n.ID, n.Title, n.Content, n.Format, n.Tags, n.LinkedTaskIDs,
			n.InlineImages, n.ColorTag, n.Pinned, n.Archived, n.CreatedAt, n.UpdatedAt); err != nil {
			return fmt.Errorf("%w: insert note %d: %v", ErrUnavailable, n.ID, err)
		}
		for _, a := range n.Attachments {
			if _, err := tx.Exec(ctx, `
				INSERT INTO attachments (id, note_id, kind, url, name, size, media_type, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, a.ID, a.NoteID, a.Kind, a.URL, a.Name, a.Size, a.MediaType, a.CreatedAt); err != nil {
				return fmt.Errorf("%w: insert attachment %s: %v", ErrUnavailable, a.ID, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *PGStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
