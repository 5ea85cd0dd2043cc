package lifecycle

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/notesage/ai/vector"
	"github.com/hrygo/notesage/internal/profile"
	"github.com/hrygo/notesage/store"
	"github.com/hrygo/notesage/store/db/sqlite"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	p := &profile.Profile{
		Mode:   "prod",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "notesage_test.db?_loc=auto"),
	}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	s := store.New(driver, p)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestSweepRepairsMissingEmbedding(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	index := vector.NewStoreIndex(s, "test-model")
	sync := NewSynchronizer(&fakeEmbedder{vec: []float32{1, 0, 0}}, index, 2)
	r := NewReconciler(s, sync, 0)

	// A note whose create-time embedding never landed.
	_, err := s.CreateNote(ctx, &store.Note{UID: "n1", OwnerUID: "alice", Content: "remember the milk"})
	require.NoError(t, err)

	r.Sweep(ctx)

	uids, err := s.ListNoteEmbeddingUIDs(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, uids)
}

func TestSweepPrunesStaleEmbedding(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	index := vector.NewStoreIndex(s, "test-model")
	sync := NewSynchronizer(&fakeEmbedder{vec: []float32{1, 0, 0}}, index, 2)
	r := NewReconciler(s, sync, 0)

	// An embedding whose note was deleted while the index delete failed.
	_, err := s.CreateNote(ctx, &store.Note{UID: "gone", OwnerUID: "alice", Content: "stale"})
	require.NoError(t, err)
	sync.OnNoteCreated(ctx, NoteEvent{UID: "gone", OwnerUID: "alice", Content: "stale"})
	require.NoError(t, s.DeleteNote(ctx, &store.DeleteNote{UID: "gone", OwnerUID: "alice"}))

	r.Sweep(ctx)

	uids, err := s.ListNoteEmbeddingUIDs(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, uids)
}

func TestSweepLeavesConsistentStateAlone(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	index := vector.NewStoreIndex(s, "test-model")
	embedder := &fakeEmbedder{vec: []float32{1, 0, 0}}
	sync := NewSynchronizer(embedder, index, 2)
	r := NewReconciler(s, sync, 0)

	_, err := s.CreateNote(ctx, &store.Note{UID: "n1", OwnerUID: "alice", Content: "indexed"})
	require.NoError(t, err)
	sync.OnNoteCreated(ctx, NoteEvent{UID: "n1", OwnerUID: "alice", Content: "indexed"})

	// Empty notes never get an embedding and must not be "repaired".
	_, err = s.CreateNote(ctx, &store.Note{UID: "n2", OwnerUID: "alice", Content: "   "})
	require.NoError(t, err)

	calls := embedder.calls
	r.Sweep(ctx)
	assert.Equal(t, calls, embedder.calls)
}
