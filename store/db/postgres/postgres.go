// Package postgres implements the store driver for PostgreSQL.
// Vector similarity search uses the pgvector extension.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/hrygo/notesage/internal/profile"
	"github.com/hrygo/notesage/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a database specified by its connection string found in the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	driver := DB{db: db, profile: profile}
	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Migrate creates the schema. Statements are idempotent so migration can run
// on every startup.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS note (
			uid TEXT NOT NULL,
			owner_uid TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			created_ts BIGINT NOT NULL,
			updated_ts BIGINT NOT NULL,
			PRIMARY KEY (owner_uid, uid)
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS note_embedding (
			note_uid TEXT NOT NULL,
			owner_uid TEXT NOT NULL,
			model TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			created_ts BIGINT NOT NULL,
			updated_ts BIGINT NOT NULL,
			PRIMARY KEY (owner_uid, note_uid)
		)`, d.dimensions()),
		`CREATE INDEX IF NOT EXISTS idx_note_owner ON note (owner_uid)`,
		`CREATE INDEX IF NOT EXISTS idx_note_embedding_owner ON note_embedding (owner_uid)`,
	}

	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to execute migration statement: %s", firstLine(stmt))
		}
	}
	return nil
}

func (d *DB) dimensions() int {
	if d.profile != nil && d.profile.EmbeddingDimensions > 0 {
		return d.profile.EmbeddingDimensions
	}
	return 1024
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}

// placeholder returns a positional parameter placeholder, e.g. $3.
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// placeholders returns n comma-separated positional placeholders starting at $1.
func placeholders(n int) string {
	list := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		list = append(list, placeholder(i))
	}
	return strings.Join(list, ", ")
}
