package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	Migrate(ctx context.Context) error

	// Note model related methods.
	CreateNote(ctx context.Context, create *Note) (*Note, error)
	ListNotes(ctx context.Context, find *FindNote) ([]*Note, error)
	UpdateNote(ctx context.Context, update *UpdateNote) (*Note, error)
	DeleteNote(ctx context.Context, delete *DeleteNote) error

	// ListNoteOwnerUIDs lists the distinct owners that have notes.
	ListNoteOwnerUIDs(ctx context.Context) ([]string, error)

	// Note embedding model related methods.
	UpsertNoteEmbedding(ctx context.Context, embedding *NoteEmbedding) (*NoteEmbedding, error)
	NoteVectorSearch(ctx context.Context, opts *VectorSearchOptions) ([]*NoteEmbeddingMatch, error)
	DeleteNoteEmbedding(ctx context.Context, noteUID, ownerUID string) error
	ListNoteEmbeddingUIDs(ctx context.Context, ownerUID string) ([]string, error)
}
