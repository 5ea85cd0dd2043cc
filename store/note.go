package store

import (
	"context"

	"github.com/pkg/errors"
)

// Note represents a user note. Notes are the primary records; vector index
// entries are derived from them and kept in sync on a best-effort basis.
type Note struct {
	// UID is an opaque identifier, unique per owning user.
	UID string
	// OwnerUID identifies the owning user. It doubles as the vector index
	// namespace for this note's embedding.
	OwnerUID  string
	Title     string
	Content   string
	Summary   string
	CreatedTs int64
	UpdatedTs int64
}

// FindNote is the find condition for notes.
type FindNote struct {
	UID      *string
	OwnerUID *string
	Limit    *int
}

// UpdateNote is the update payload for a note. Nil fields are left untouched.
type UpdateNote struct {
	UID       string
	OwnerUID  string
	Title     *string
	Content   *string
	Summary   *string
	UpdatedTs int64
}

// DeleteNote is the delete condition for a note.
type DeleteNote struct {
	UID      string
	OwnerUID string
}

// CreateNote creates a new note.
func (s *Store) CreateNote(ctx context.Context, create *Note) (*Note, error) {
	if create.UID == "" {
		return nil, errors.New("note uid cannot be empty")
	}
	if create.OwnerUID == "" {
		return nil, errors.New("note owner cannot be empty")
	}
	return s.driver.CreateNote(ctx, create)
}

// ListNotes lists notes matching the find condition.
func (s *Store) ListNotes(ctx context.Context, find *FindNote) ([]*Note, error) {
	return s.driver.ListNotes(ctx, find)
}

// GetNote gets a single note, or nil when it does not exist.
func (s *Store) GetNote(ctx context.Context, find *FindNote) (*Note, error) {
	list, err := s.driver.ListNotes(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// UpdateNote updates a note and returns the updated record.
func (s *Store) UpdateNote(ctx context.Context, update *UpdateNote) (*Note, error) {
	if update.UID == "" || update.OwnerUID == "" {
		return nil, errors.New("note uid and owner are required")
	}
	return s.driver.UpdateNote(ctx, update)
}

// ListNoteOwnerUIDs lists the distinct owners that have notes. Used by the
// reconciliation sweep.
func (s *Store) ListNoteOwnerUIDs(ctx context.Context) ([]string, error) {
	return s.driver.ListNoteOwnerUIDs(ctx)
}

// DeleteNote deletes a note.
func (s *Store) DeleteNote(ctx context.Context, delete *DeleteNote) error {
	if delete.UID == "" || delete.OwnerUID == "" {
		return errors.New("note uid and owner are required")
	}
	return s.driver.DeleteNote(ctx, delete)
}
