package lifecycle

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/notesage/ai/vector"
)

type fakeEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	return f.vec, f.err
}

func (f *fakeEmbedder) Dimensions() int { return len(f.vec) }

func (f *fakeEmbedder) Warmup(_ context.Context) {}

type memIndex struct {
	mu        sync.Mutex
	records   map[string]map[string]vector.Metadata
	upsertErr error
	deleteErr error
}

func newMemIndex() *memIndex {
	return &memIndex{records: map[string]map[string]vector.Metadata{}}
}

func (m *memIndex) Upsert(_ context.Context, namespace, id string, _ []float32, meta vector.Metadata) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records[namespace] == nil {
		m.records[namespace] = map[string]vector.Metadata{}
	}
	m.records[namespace][id] = meta
	return nil
}

func (m *memIndex) Query(_ context.Context, _ string, _ []float32, _ int) ([]vector.Match, error) {
	return nil, nil
}

func (m *memIndex) Delete(_ context.Context, namespace, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records[namespace], id)
	return nil
}

func (m *memIndex) count(namespace string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records[namespace])
}

func TestSynchronizerCreateIndexesNote(t *testing.T) {
	ctx := context.Background()
	index := newMemIndex()
	s := NewSynchronizer(&fakeEmbedder{vec: []float32{1, 0}}, index, 2)

	s.OnNoteCreated(ctx, NoteEvent{UID: "n1", OwnerUID: "alice", Content: "remember the milk"})

	require.Equal(t, 1, index.count("alice"))
	assert.Equal(t, "remember the milk", index.records["alice"]["n1"].SourceText)
	assert.Equal(t, "alice", index.records["alice"]["n1"].OwnerUID)
}

func TestSynchronizerUpdateReplacesEmbedding(t *testing.T) {
	ctx := context.Background()
	index := newMemIndex()
	s := NewSynchronizer(&fakeEmbedder{vec: []float32{1, 0}}, index, 2)

	s.OnNoteCreated(ctx, NoteEvent{UID: "n1", OwnerUID: "alice", Content: "old"})
	s.OnNoteUpdated(ctx, NoteEvent{UID: "n1", OwnerUID: "alice", Content: "new"})

	require.Equal(t, 1, index.count("alice"))
	assert.Equal(t, "new", index.records["alice"]["n1"].SourceText)
}

func TestSynchronizerDeleteRemovesEmbedding(t *testing.T) {
	ctx := context.Background()
	index := newMemIndex()
	s := NewSynchronizer(&fakeEmbedder{vec: []float32{1, 0}}, index, 2)

	s.OnNoteCreated(ctx, NoteEvent{UID: "n1", OwnerUID: "alice", Content: "text"})
	s.OnNoteDeleted(ctx, "n1", "alice")
	assert.Zero(t, index.count("alice"))

	// Deleting again is a no-op, not a failure.
	s.OnNoteDeleted(ctx, "n1", "alice")
}

func TestSynchronizerEmptyContentSkipsEmbedding(t *testing.T) {
	ctx := context.Background()
	index := newMemIndex()
	embedder := &fakeEmbedder{vec: []float32{1, 0}}
	s := NewSynchronizer(embedder, index, 2)

	s.OnNoteCreated(ctx, NoteEvent{UID: "n1", OwnerUID: "alice", Content: "   \n"})
	assert.Zero(t, embedder.calls)
	assert.Zero(t, index.count("alice"))

	// Emptying a note on update drops its existing vector.
	s.OnNoteCreated(ctx, NoteEvent{UID: "n2", OwnerUID: "alice", Content: "keep"})
	s.OnNoteUpdated(ctx, NoteEvent{UID: "n2", OwnerUID: "alice", Content: ""})
	assert.Zero(t, index.count("alice"))
}

func TestSynchronizerSwallowsFailures(t *testing.T) {
	ctx := context.Background()

	// Embedding failure must not panic or index anything.
	index := newMemIndex()
	s := NewSynchronizer(&fakeEmbedder{err: errors.New("provider down")}, index, 2)
	s.OnNoteCreated(ctx, NoteEvent{UID: "n1", OwnerUID: "alice", Content: "text"})
	assert.Zero(t, index.count("alice"))

	// Index failures are swallowed the same way.
	index = newMemIndex()
	index.upsertErr = errors.New("index down")
	index.deleteErr = errors.New("index down")
	s = NewSynchronizer(&fakeEmbedder{vec: []float32{1, 0}}, index, 2)
	s.OnNoteCreated(ctx, NoteEvent{UID: "n1", OwnerUID: "alice", Content: "text"})
	s.OnNoteDeleted(ctx, "n1", "alice")
}
