// Package localdb opens the client's SQLite store, applies migrations and
// vends repositories bound to it.
package localdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/notesync/internal/client/migrations"
	"github.com/dmitrijs2005/notesync/internal/client/repositories/basevers"
	"github.com/dmitrijs2005/notesync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/notesync/internal/client/repositories/records"
	"github.com/dmitrijs2005/notesync/internal/dbx"
)

// LocalDB owns the SQLite handle and hands out repositories either bound to
// the handle directly or to a transaction via the dbx helpers.
type LocalDB struct {
	DB *sql.DB
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the store at dsn and migrates it.
func Open(ctx context.Context, dsn string) (*LocalDB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open local db: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate local db: %w", err)
	}
	return &LocalDB{DB: db}, nil
}

func (l *LocalDB) Close() error { return l.DB.Close() }

func (l *LocalDB) Records(db dbx.DBTX) records.Repository   { return records.NewSQLiteRepository(db) }
func (l *LocalDB) BaseVers(db dbx.DBTX) basevers.Repository { return basevers.NewSQLiteRepository(db) }
func (l *LocalDB) Metadata(db dbx.DBTX) metadata.Repository { return metadata.NewSQLiteRepository(db) }
