// Package sqlite implements the store driver for SQLite.
//
// SQLite is intended for development and single-user instances. Vectors are
// stored as little-endian float32 BLOBs and similarity is computed in the
// application layer, which is adequate for personal-scale note collections.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/hrygo/notesage/internal/profile"
	"github.com/hrygo/notesage/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a database specified by the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	// WAL journal mode prevents most locking issues; busy_timeout covers the rest.
	// With the modernc.org/sqlite driver each pragma must be prefixed with `_pragma=`.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	// A single connection is optimal for SQLite with WAL mode.
	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)
	sqliteDB.SetConnMaxIdleTime(0)

	driver := DB{db: sqliteDB, profile: profile}
	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Migrate creates the schema. Statements are idempotent.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS note (
			uid TEXT NOT NULL,
			owner_uid TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			created_ts INTEGER NOT NULL,
			updated_ts INTEGER NOT NULL,
			PRIMARY KEY (owner_uid, uid)
		)`,
		`CREATE TABLE IF NOT EXISTS note_embedding (
			note_uid TEXT NOT NULL,
			owner_uid TEXT NOT NULL,
			model TEXT NOT NULL,
			embedding BLOB NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			created_ts INTEGER NOT NULL,
			updated_ts INTEGER NOT NULL,
			PRIMARY KEY (owner_uid, note_uid)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to execute migration statement")
		}
	}
	return nil
}
