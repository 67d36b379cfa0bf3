// Package notes provides the PostgreSQL-backed repository for server-side
// encrypted note rows and sync queries.
package notes

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/notesync/internal/dbx"
	"github.com/dmitrijs2005/notesync/internal/server/models"
)

// PostgresRepository implements note storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const noteColumns = `user_id, client_id, type, cipher_text, iv, version, created_at, updated_at, deleted_at, server_created_at, server_updated_at, server_deleted_at`

func scanNoteRows(rows *sql.Rows) ([]*models.NoteRow, error) {
	var result []*models.NoteRow
	for rows.Next() {
		var n models.NoteRow
		if err := rows.Scan(
			&n.UserID, &n.ClientID, &n.Type, &n.CipherText, &n.IV, &n.Version,
			&n.CreatedAt, &n.UpdatedAt, &n.DeletedAt,
			&n.ServerCreatedAt, &n.ServerUpdatedAt, &n.ServerDeletedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByClientIDs loads the user's rows for the given client ids in one round trip.
func (r *PostgresRepository) GetByClientIDs(ctx context.Context, userID string, clientIDs []string) ([]*models.NoteRow, error) {
	if len(clientIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + noteColumns + ` FROM notes WHERE user_id = $1 AND client_id = ANY($2)`
	rows, err := r.db.QueryContext(ctx, query, userID, clientIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to select notes: %w", err)
	}
	defer rows.Close()
	return scanNoteRows(rows)
}

// BulkInsert creates new rows. Callers must have verified the ids do not
// exist yet; a duplicate violates the (user_id, client_id) constraint and
// fails the whole transaction.
func (r *PostgresRepository) BulkInsert(ctx context.Context, rows []*models.NoteRow) error {
	query := `
		INSERT INTO notes (` + noteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	for _, n := range rows {
		if _, err := r.db.ExecContext(ctx, query,
			n.UserID, n.ClientID, n.Type, n.CipherText, n.IV, n.Version,
			n.CreatedAt, n.UpdatedAt, n.DeletedAt,
			n.ServerCreatedAt, n.ServerUpdatedAt, n.ServerDeletedAt,
		); err != nil {
			return fmt.Errorf("failed to insert note %s: %w", n.ClientID, err)
		}
	}
	return nil
}

// BulkUpdate overwrites existing rows identified by (user_id, client_id).
func (r *PostgresRepository) BulkUpdate(ctx context.Context, rows []*models.NoteRow) error {
	query := `
		UPDATE notes SET
			type = $3, cipher_text = $4, iv = $5, version = $6,
			created_at = $7, updated_at = $8, deleted_at = $9,
			server_updated_at = $10, server_deleted_at = $11
		WHERE user_id = $1 AND client_id = $2
	`
	for _, n := range rows {
		res, err := r.db.ExecContext(ctx, query,
			n.UserID, n.ClientID, n.Type, n.CipherText, n.IV, n.Version,
			n.CreatedAt, n.UpdatedAt, n.DeletedAt,
			n.ServerUpdatedAt, n.ServerDeletedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to update note %s: %w", n.ClientID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected != 1 {
			return fmt.Errorf("unexpected rows affected for note %s: %d", n.ClientID, affected)
		}
	}
	return nil
}

// SelectUpdatedSince returns all of the user's rows touched by the server
// after the given cursor value, tombstones included.
func (r *PostgresRepository) SelectUpdatedSince(ctx context.Context, userID string, since int64) ([]*models.NoteRow, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE user_id = $1 AND server_updated_at > $2`
	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to select updated notes: %w", err)
	}
	defer rows.Close()
	return scanNoteRows(rows)
}

// SumCipherLen returns the user's total stored ciphertext length in bytes,
// the quantity bounded by the storage quota.
func (r *PostgresRepository) SumCipherLen(ctx context.Context, userID string) (int64, error) {
	var sum int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(LENGTH(cipher_text)), 0) FROM notes WHERE user_id = $1`, userID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum cipher length: %w", err)
	}
	return sum, nil
}

// DeleteTombstonedBefore removes rows that were tombstoned and not touched
// since the cutoff (server clock, ms). Every client has had the retention
// window to observe the deletion.
func (r *PostgresRepository) DeleteTombstonedBefore(ctx context.Context, cutoff int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM notes WHERE server_deleted_at <> 0 AND server_deleted_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tombstones: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// DeleteAllForUser removes every row the user owns. Used by account wipe.
func (r *PostgresRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete user notes: %w", err)
	}
	return nil
}
