// Package vector provides the namespace-scoped vector index abstraction.
//
// A namespace is the tenant-isolation boundary: every operation is scoped to
// exactly one namespace (the owning user's id) and no cross-namespace
// capability exists. Leaking results across namespaces is a confidentiality
// bug, not just a correctness bug.
package vector

import (
	"context"

	"github.com/pkg/errors"
)

// ErrUnavailable is returned on transport or storage failure.
var ErrUnavailable = errors.New("vector: index unavailable")

// Metadata is the payload stored alongside a vector.
type Metadata struct {
	OwnerUID   string
	SourceText string
}

// Match represents a similarity search result, ranked descending by score.
type Match struct {
	// ID is the opaque record id supplied at upsert time (the note uid).
	ID string
	// Score is cosine similarity, higher is more similar.
	Score float32
	// SourceText is the text the indexed vector was computed from.
	SourceText string
}

// Index is a per-namespace vector store supporting upsert, nearest-neighbor
// query, and delete by opaque id.
type Index interface {
	// Upsert replaces any existing record with the same id in the namespace.
	Upsert(ctx context.Context, namespace, id string, vec []float32, meta Metadata) error

	// Query returns up to topK nearest neighbors by cosine similarity,
	// descending. An empty namespace yields an empty list, not an error.
	Query(ctx context.Context, namespace string, vec []float32, topK int) ([]Match, error)

	// Delete removes a record if present. Deleting an absent id is not an error.
	Delete(ctx context.Context, namespace, id string) error
}

func validateScope(namespace, id string) error {
	if namespace == "" {
		return errors.New("vector: namespace is required")
	}
	if id == "" {
		return errors.New("vector: id is required")
	}
	return nil
}

func validateQuery(namespace string, vec []float32, topK int) error {
	if namespace == "" {
		return errors.New("vector: namespace is required")
	}
	if len(vec) == 0 {
		return errors.New("vector: query vector is required")
	}
	if topK <= 0 {
		return errors.Errorf("vector: topK must be positive, got %d", topK)
	}
	return nil
}
