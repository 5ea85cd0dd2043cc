package store

import (
	"context"

	"github.com/pkg/errors"
)

// NoteEmbedding represents the vector embedding of a note. One embedding
// exists per note with non-empty content; it is replaced wholesale when the
// note content changes.
type NoteEmbedding struct {
	NoteUID  string
	OwnerUID string
	Model    string
	// Embedding is L2-normalized, so dot product equals cosine similarity.
	Embedding []float32
	// Content is the source text the vector was computed from. Stored so
	// retrieval can assemble grounding context without re-reading notes.
	Content   string
	CreatedTs int64
	UpdatedTs int64
}

// NoteEmbeddingMatch represents a vector search result with similarity score.
type NoteEmbeddingMatch struct {
	NoteUID string
	Content string
	// Score is cosine similarity in [0, 1], higher is more similar.
	Score float32
}

// VectorSearchOptions represents the options for note vector search.
// OwnerUID is mandatory: every search is scoped to exactly one owner.
type VectorSearchOptions struct {
	OwnerUID string
	Vector   []float32
	Limit    int
}

// Validate validates the VectorSearchOptions.
func (o *VectorSearchOptions) Validate() error {
	if o.OwnerUID == "" {
		return errors.New("owner uid cannot be empty")
	}
	if len(o.Vector) == 0 {
		return errors.New("vector cannot be empty")
	}
	if o.Limit < 0 {
		return errors.Errorf("limit cannot be negative: %d", o.Limit)
	}
	if o.Limit == 0 {
		o.Limit = 5
	}
	if o.Limit > 100 {
		return errors.Errorf("limit too large (max 100): %d", o.Limit)
	}
	return nil
}

// UpsertNoteEmbedding inserts or replaces a note embedding.
func (s *Store) UpsertNoteEmbedding(ctx context.Context, embedding *NoteEmbedding) (*NoteEmbedding, error) {
	if embedding.NoteUID == "" || embedding.OwnerUID == "" {
		return nil, errors.New("note uid and owner are required")
	}
	if len(embedding.Embedding) == 0 {
		return nil, errors.New("embedding vector cannot be empty")
	}
	return s.driver.UpsertNoteEmbedding(ctx, embedding)
}

// NoteVectorSearch performs cosine-similarity search over one owner's embeddings.
func (s *Store) NoteVectorSearch(ctx context.Context, opts *VectorSearchOptions) ([]*NoteEmbeddingMatch, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return s.driver.NoteVectorSearch(ctx, opts)
}

// DeleteNoteEmbedding deletes a note embedding. Deleting an absent embedding
// is not an error.
func (s *Store) DeleteNoteEmbedding(ctx context.Context, noteUID, ownerUID string) error {
	if noteUID == "" || ownerUID == "" {
		return errors.New("note uid and owner are required")
	}
	return s.driver.DeleteNoteEmbedding(ctx, noteUID, ownerUID)
}

// ListNoteEmbeddingUIDs lists the note uids that currently have an embedding
// for the given owner. Used by the reconciliation sweep.
func (s *Store) ListNoteEmbeddingUIDs(ctx context.Context, ownerUID string) ([]string, error) {
	if ownerUID == "" {
		return nil, errors.New("owner uid cannot be empty")
	}
	return s.driver.ListNoteEmbeddingUIDs(ctx, ownerUID)
}
