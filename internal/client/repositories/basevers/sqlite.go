// Package basevers provides the SQLite-backed store for merge ancestors.
package basevers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/notesync/internal/client/models"
	"github.com/dmitrijs2005/notesync/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const baseColumns = `id, type, version, created_at, updated_at, deleted_at, title, txt, todos, labels, name, hue`

func (r *SQLiteRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+baseColumns+` FROM base_versions WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select base versions: %w", err)
	}
	defer rows.Close()

	var result []*models.Record
	for rows.Next() {
		var rec models.Record
		var todos, labels string
		var hue sql.NullInt64
		if err := rows.Scan(
			&rec.ID, &rec.Type, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt, &rec.DeletedAt,
			&rec.Title, &rec.Txt, &todos, &labels, &rec.Name, &hue,
		); err != nil {
			return nil, err
		}
		if todos != "" {
			if err := json.Unmarshal([]byte(todos), &rec.Todos); err != nil {
				return nil, fmt.Errorf("unmarshal todos: %w", err)
			}
		}
		if labels != "" {
			if err := json.Unmarshal([]byte(labels), &rec.Labels); err != nil {
				return nil, fmt.Errorf("unmarshal labels: %w", err)
			}
		}
		if hue.Valid {
			h := int(hue.Int64)
			rec.Hue = &h
		}
		result = append(result, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) UpsertMany(ctx context.Context, recs []*models.Record) error {
	query := `INSERT INTO base_versions (` + baseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			version = excluded.version,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			title = excluded.title,
			txt = excluded.txt,
			todos = excluded.todos,
			labels = excluded.labels,
			name = excluded.name,
			hue = excluded.hue
	`
	for _, rec := range recs {
		var todos, labels string
		if rec.Todos != nil {
			b, err := json.Marshal(rec.Todos)
			if err != nil {
				return fmt.Errorf("marshal todos: %w", err)
			}
			todos = string(b)
		}
		if rec.Labels != nil {
			b, err := json.Marshal(rec.Labels)
			if err != nil {
				return fmt.Errorf("marshal labels: %w", err)
			}
			labels = string(b)
		}
		var hue sql.NullInt64
		if rec.Hue != nil {
			hue = sql.NullInt64{Int64: int64(*rec.Hue), Valid: true}
		}
		if _, err := r.db.ExecContext(ctx, query,
			rec.ID, rec.Type, rec.Version, rec.CreatedAt, rec.UpdatedAt, rec.DeletedAt,
			rec.Title, rec.Txt, todos, labels, rec.Name, hue,
		); err != nil {
			return fmt.Errorf("failed to upsert base version %s: %w", rec.ID, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM base_versions WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("failed to delete base versions: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM base_versions`); err != nil {
		return fmt.Errorf("failed to delete base versions: %w", err)
	}
	return nil
}
