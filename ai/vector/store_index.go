package vector

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/notesage/store"
)

// StoreIndex adapts the database-backed embedding store to the Index
// interface. The namespace maps to the embedding's owner uid column.
type StoreIndex struct {
	store *store.Store
	model string
}

// NewStoreIndex creates an Index over the given store. The model name is
// recorded on every embedding row for future migrations between models.
func NewStoreIndex(s *store.Store, model string) *StoreIndex {
	return &StoreIndex{store: s, model: model}
}

func (x *StoreIndex) Upsert(ctx context.Context, namespace, id string, vec []float32, meta Metadata) error {
	if err := validateScope(namespace, id); err != nil {
		return err
	}
	now := time.Now().Unix()
	_, err := x.store.UpsertNoteEmbedding(ctx, &store.NoteEmbedding{
		NoteUID:   id,
		OwnerUID:  namespace,
		Model:     x.model,
		Embedding: vec,
		Content:   meta.SourceText,
		CreatedTs: now,
		UpdatedTs: now,
	})
	if err != nil {
		return errors.Wrapf(ErrUnavailable, "upsert embedding: %v", err)
	}
	return nil
}

func (x *StoreIndex) Query(ctx context.Context, namespace string, vec []float32, topK int) ([]Match, error) {
	if err := validateQuery(namespace, vec, topK); err != nil {
		return nil, err
	}
	results, err := x.store.NoteVectorSearch(ctx, &store.VectorSearchOptions{
		OwnerUID: namespace,
		Vector:   vec,
		Limit:    topK,
	})
	if err != nil {
		return nil, errors.Wrapf(ErrUnavailable, "vector search: %v", err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, Match{
			ID:         r.NoteUID,
			Score:      r.Score,
			SourceText: r.Content,
		})
	}
	return matches, nil
}

func (x *StoreIndex) Delete(ctx context.Context, namespace, id string) error {
	if err := validateScope(namespace, id); err != nil {
		return err
	}
	if err := x.store.DeleteNoteEmbedding(ctx, id, namespace); err != nil {
		return errors.Wrapf(ErrUnavailable, "delete embedding: %v", err)
	}
	return nil
}
