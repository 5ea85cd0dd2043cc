package sqlite

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/notesage/internal/profile"
	"github.com/hrygo/notesage/store"
)

func newTestDB(t *testing.T) store.Driver {
	t.Helper()
	p := &profile.Profile{
		Mode:   "prod",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "notesage_test.db?_loc=auto"),
	}
	driver, err := NewDB(p)
	require.NoError(t, err)
	require.NoError(t, driver.Migrate(context.Background()))
	t.Cleanup(func() {
		_ = driver.Close()
	})
	return driver
}

func TestBlobRoundTrip(t *testing.T) {
	vec := []float32{0.1, -2.5, 0, math.MaxFloat32, 1e-30}
	got, err := blobToFloat32Array(float32ArrayToBLOB(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, got)

	_, err = blobToFloat32Array([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-6)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-3, 0}), 1e-6)

	// Mismatched dimensions and zero vectors degrade to 0.
	assert.Zero(t, cosineSimilarity([]float32{1, 0}, []float32{1}))
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
	assert.Zero(t, cosineSimilarity(nil, nil))
}

func TestNoteVectorSearchRanksAndScopes(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)

	embeddings := []*store.NoteEmbedding{
		{NoteUID: "exact", OwnerUID: "alice", Model: "m", Embedding: []float32{1, 0}, Content: "exact match", CreatedTs: 1, UpdatedTs: 1},
		{NoteUID: "close", OwnerUID: "alice", Model: "m", Embedding: []float32{0.9, 0.1}, Content: "close match", CreatedTs: 1, UpdatedTs: 1},
		{NoteUID: "far", OwnerUID: "alice", Model: "m", Embedding: []float32{0, 1}, Content: "far away", CreatedTs: 1, UpdatedTs: 1},
		{NoteUID: "other", OwnerUID: "bob", Model: "m", Embedding: []float32{1, 0}, Content: "other tenant", CreatedTs: 1, UpdatedTs: 1},
	}
	for _, e := range embeddings {
		_, err := d.UpsertNoteEmbedding(ctx, e)
		require.NoError(t, err)
	}

	matches, err := d.NoteVectorSearch(ctx, &store.VectorSearchOptions{
		OwnerUID: "alice",
		Vector:   []float32{1, 0},
		Limit:    2,
	})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "exact", matches[0].NoteUID)
	assert.Equal(t, "close", matches[1].NoteUID)
	assert.InDelta(t, 1.0, float64(matches[0].Score), 1e-6)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestUpsertNoteEmbeddingReplaces(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)

	_, err := d.UpsertNoteEmbedding(ctx, &store.NoteEmbedding{
		NoteUID: "n1", OwnerUID: "alice", Model: "m",
		Embedding: []float32{1, 0}, Content: "v1", CreatedTs: 1, UpdatedTs: 1,
	})
	require.NoError(t, err)
	_, err = d.UpsertNoteEmbedding(ctx, &store.NoteEmbedding{
		NoteUID: "n1", OwnerUID: "alice", Model: "m",
		Embedding: []float32{0, 1}, Content: "v2", CreatedTs: 2, UpdatedTs: 2,
	})
	require.NoError(t, err)

	uids, err := d.ListNoteEmbeddingUIDs(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, uids)

	matches, err := d.NoteVectorSearch(ctx, &store.VectorSearchOptions{
		OwnerUID: "alice", Vector: []float32{0, 1}, Limit: 5,
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "v2", matches[0].Content)
}

func TestDeleteNoteEmbeddingIdempotent(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)

	_, err := d.UpsertNoteEmbedding(ctx, &store.NoteEmbedding{
		NoteUID: "n1", OwnerUID: "alice", Model: "m",
		Embedding: []float32{1}, Content: "x", CreatedTs: 1, UpdatedTs: 1,
	})
	require.NoError(t, err)

	require.NoError(t, d.DeleteNoteEmbedding(ctx, "n1", "alice"))
	require.NoError(t, d.DeleteNoteEmbedding(ctx, "n1", "alice"))

	uids, err := d.ListNoteEmbeddingUIDs(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, uids)
}
