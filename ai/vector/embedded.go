package vector

import (
	"context"
	"math"
	"sync"

	"github.com/hupe1980/vecgo"
	"github.com/hupe1980/vecgo/metadata"
	"github.com/pkg/errors"
)

// record tracks an indexed vector so exact scores can be recomputed and
// replaced entries can be updated in place.
type record struct {
	internalID uint64
	vec        []float32
}

// EmbeddedIndex is an in-process Index over a vecgo flat index. It keeps
// nothing on disk and is intended for demo mode and tests. Namespace
// isolation is enforced with a metadata filter on every search.
type EmbeddedIndex struct {
	mu   sync.Mutex
	db   *vecgo.Vecgo[string]
	dims int
	// records is namespace -> external id -> record.
	records map[string]map[string]*record
}

// NewEmbeddedIndex creates an embedded flat index for vectors of the given
// dimensionality.
func NewEmbeddedIndex(dimensions int) (*EmbeddedIndex, error) {
	db, err := vecgo.Flat[string](dimensions).Cosine().Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build embedded vector index")
	}
	return &EmbeddedIndex{
		db:      db,
		dims:    dimensions,
		records: make(map[string]map[string]*record),
	}, nil
}

func (x *EmbeddedIndex) Upsert(ctx context.Context, namespace, id string, vec []float32, meta Metadata) error {
	if err := validateScope(namespace, id); err != nil {
		return err
	}
	if len(vec) != x.dims {
		return errors.Errorf("vector: dimension mismatch: got %d, want %d", len(vec), x.dims)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	item := vecgo.VectorWithData[string]{
		Vector: append([]float32(nil), vec...),
		Data:   meta.SourceText,
		Metadata: metadata.Metadata{
			"owner": metadata.String(namespace),
			"id":    metadata.String(id),
		},
	}

	ns := x.records[namespace]
	if existing, ok := ns[id]; ok {
		if err := x.db.Update(ctx, existing.internalID, item); err != nil {
			return errors.Wrapf(ErrUnavailable, "update vector: %v", err)
		}
		existing.vec = item.Vector
		return nil
	}

	internalID, err := x.db.Insert(ctx, item)
	if err != nil {
		return errors.Wrapf(ErrUnavailable, "insert vector: %v", err)
	}
	if ns == nil {
		ns = make(map[string]*record)
		x.records[namespace] = ns
	}
	ns[id] = &record{internalID: internalID, vec: item.Vector}
	return nil
}

func (x *EmbeddedIndex) Query(ctx context.Context, namespace string, vec []float32, topK int) ([]Match, error) {
	if err := validateQuery(namespace, vec, topK); err != nil {
		return nil, err
	}

	x.mu.Lock()
	ns := x.records[namespace]
	if len(ns) == 0 {
		x.mu.Unlock()
		return []Match{}, nil
	}
	x.mu.Unlock()

	results, err := x.db.Search(vec).
		KNN(topK).
		WithMetadata(&metadata.FilterSet{
			Filters: []metadata.Filter{
				{Key: "owner", Operator: metadata.OpEqual, Value: metadata.String(namespace)},
			},
		}).
		Execute(ctx)
	if err != nil {
		return nil, errors.Wrapf(ErrUnavailable, "knn search: %v", err)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		id := r.Metadata["id"].StringValue()
		rec, ok := ns[id]
		if !ok {
			// Entry deleted between search and scoring.
			continue
		}
		matches = append(matches, Match{
			ID:         id,
			Score:      cosine(vec, rec.vec),
			SourceText: r.Data,
		})
	}
	return matches, nil
}

func (x *EmbeddedIndex) Delete(ctx context.Context, namespace, id string) error {
	if err := validateScope(namespace, id); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	rec, ok := x.records[namespace][id]
	if !ok {
		return nil
	}
	if err := x.db.Delete(ctx, rec.internalID); err != nil {
		return errors.Wrapf(ErrUnavailable, "delete vector: %v", err)
	}
	delete(x.records[namespace], id)
	return nil
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
