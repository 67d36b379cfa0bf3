// Package records provides the SQLite-backed local store for decrypted
// client records.
package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/notesync/internal/client/models"
	"github.com/dmitrijs2005/notesync/internal/common"
	"github.com/dmitrijs2005/notesync/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const recordColumns = `id, type, version, created_at, updated_at, deleted_at, state, title, txt, todos, labels, name, hue`

func marshalList(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func scanRecord(scan func(dest ...any) error) (*models.Record, error) {
	var r models.Record
	var todos, labels string
	var hue sql.NullInt64
	if err := scan(
		&r.ID, &r.Type, &r.Version, &r.CreatedAt, &r.UpdatedAt, &r.DeletedAt,
		&r.State, &r.Title, &r.Txt, &todos, &labels, &r.Name, &hue,
	); err != nil {
		return nil, err
	}
	if todos != "" {
		if err := json.Unmarshal([]byte(todos), &r.Todos); err != nil {
			return nil, fmt.Errorf("unmarshal todos: %w", err)
		}
	}
	if labels != "" {
		if err := json.Unmarshal([]byte(labels), &r.Labels); err != nil {
			return nil, fmt.Errorf("unmarshal labels: %w", err)
		}
	}
	if hue.Valid {
		h := int(hue.Int64)
		r.Hue = &h
	}
	return &r, nil
}

func (r *SQLiteRepository) selectRecords(ctx context.Context, where string, args ...any) ([]*models.Record, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM records `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	var result []*models.Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Record, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	rec, err := scanRecord(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return r.selectRecords(ctx, `WHERE id IN (`+placeholders+`)`, args...)
}

// GetAlive lists all non-tombstoned records, newest first.
func (r *SQLiteRepository) GetAlive(ctx context.Context) ([]*models.Record, error) {
	return r.selectRecords(ctx, `WHERE deleted_at = 0 ORDER BY created_at DESC`)
}

// GetDirty lists records awaiting push, tombstones included.
func (r *SQLiteRepository) GetDirty(ctx context.Context) ([]*models.Record, error) {
	return r.selectRecords(ctx, `WHERE state = ?`, string(models.StateDirty))
}

// GetSyncedTombstones lists deletions whose round-trip has completed; they
// are safe to purge.
func (r *SQLiteRepository) GetSyncedTombstones(ctx context.Context) ([]*models.Record, error) {
	return r.selectRecords(ctx, `WHERE deleted_at <> 0 AND state = ?`, string(models.StateSynced))
}

// Upsert creates or fully replaces a record by id.
func (r *SQLiteRepository) Upsert(ctx context.Context, rec *models.Record) error {
	todos, err := marshalList(rec.Todos)
	if err != nil {
		return fmt.Errorf("marshal todos: %w", err)
	}
	labels, err := marshalList(rec.Labels)
	if err != nil {
		return fmt.Errorf("marshal labels: %w", err)
	}
	var hue sql.NullInt64
	if rec.Hue != nil {
		hue = sql.NullInt64{Int64: int64(*rec.Hue), Valid: true}
	}
	query := `INSERT INTO records (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			version = excluded.version,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			state = excluded.state,
			title = excluded.title,
			txt = excluded.txt,
			todos = excluded.todos,
			labels = excluded.labels,
			name = excluded.name,
			hue = excluded.hue
	`
	_, err = r.db.ExecContext(ctx, query,
		rec.ID, rec.Type, rec.Version, rec.CreatedAt, rec.UpdatedAt, rec.DeletedAt,
		rec.State, rec.Title, rec.Txt, todos, labels, rec.Name, hue,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpsertMany(ctx context.Context, recs []*models.Record) error {
	for _, rec := range recs {
		if err := r.Upsert(ctx, rec); err != nil {
			return err
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
	if _, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}
	return nil
}
