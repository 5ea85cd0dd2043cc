// Package lifecycle keeps the vector index synchronized with note lifecycle
// events emitted by the primary record store.
//
// Synchronization is best-effort by design: a note write must never fail or
// roll back because embedding or indexing failed. Failures are logged and
// counted, never returned to the note-writing caller. Events for the same
// note must arrive in order (they are emitted synchronously from the request
// that mutates the primary store); the synchronizer never reorders them.
package lifecycle

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/hrygo/notesage/ai/embedding"
	"github.com/hrygo/notesage/ai/metrics"
	"github.com/hrygo/notesage/ai/vector"
)

// NoteEvent carries the note fields the synchronizer consumes.
type NoteEvent struct {
	UID      string
	OwnerUID string
	Content  string
}

// Synchronizer reacts to note create/update/delete events and drives the
// embedding provider and vector index to keep the index consistent.
type Synchronizer struct {
	embedder embedding.Provider
	index    vector.Index
	// sem bounds concurrent embedding calls across notes. Per-note ordering
	// is the caller's responsibility (events are handled synchronously).
	sem *semaphore.Weighted
}

// NewSynchronizer creates a Synchronizer. maxConcurrent bounds concurrent
// embedding work across distinct notes; values below 1 default to 4.
func NewSynchronizer(embedder embedding.Provider, index vector.Index, maxConcurrent int64) *Synchronizer {
	if maxConcurrent < 1 {
		maxConcurrent = 4
	}
	return &Synchronizer{
		embedder: embedder,
		index:    index,
		sem:      semaphore.NewWeighted(maxConcurrent),
	}
}

// OnNoteCreated indexes a freshly created note.
func (s *Synchronizer) OnNoteCreated(ctx context.Context, ev NoteEvent) {
	s.upsert(ctx, ev)
}

// OnNoteUpdated re-indexes a note after its content changed. The embedding is
// replaced wholesale; there is no partial update.
func (s *Synchronizer) OnNoteUpdated(ctx context.Context, ev NoteEvent) {
	s.upsert(ctx, ev)
}

// OnNoteDeleted removes a note's embedding. A failed deletion leaves a stale
// vector behind; the reconciliation sweep prunes those when enabled.
func (s *Synchronizer) OnNoteDeleted(ctx context.Context, noteUID, ownerUID string) {
	if noteUID == "" || ownerUID == "" {
		return
	}
	if err := s.index.Delete(ctx, ownerUID, noteUID); err != nil {
		metrics.EmbeddingDeletes.WithLabelValues(metrics.StatusError).Inc()
		slog.Error("failed to delete note embedding",
			"note", noteUID,
			"owner", ownerUID,
			"error", err,
		)
		return
	}
	metrics.EmbeddingDeletes.WithLabelValues(metrics.StatusOK).Inc()
}

func (s *Synchronizer) upsert(ctx context.Context, ev NoteEvent) {
	if ev.UID == "" || ev.OwnerUID == "" {
		return
	}

	// A note without content has no embedding. Dropping content on update
	// removes any previously indexed vector.
	if strings.TrimSpace(ev.Content) == "" {
		metrics.EmbeddingSyncs.WithLabelValues(metrics.StatusSkip).Inc()
		if err := s.index.Delete(ctx, ev.OwnerUID, ev.UID); err != nil {
			slog.Warn("failed to drop embedding for emptied note",
				"note", ev.UID,
				"owner", ev.OwnerUID,
				"error", err,
			)
		}
		return
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		metrics.EmbeddingSyncs.WithLabelValues(metrics.StatusError).Inc()
		slog.Error("embedding sync canceled", "note", ev.UID, "error", err)
		return
	}
	defer s.sem.Release(1)

	vec, err := s.embedder.Embed(ctx, ev.Content)
	if err != nil {
		metrics.EmbeddingSyncs.WithLabelValues(metrics.StatusError).Inc()
		slog.Error("failed to embed note content",
			"note", ev.UID,
			"owner", ev.OwnerUID,
			"error", err,
		)
		return
	}

	meta := vector.Metadata{OwnerUID: ev.OwnerUID, SourceText: ev.Content}
	if err := s.index.Upsert(ctx, ev.OwnerUID, ev.UID, vec, meta); err != nil {
		metrics.EmbeddingSyncs.WithLabelValues(metrics.StatusError).Inc()
		slog.Error("failed to index note embedding",
			"note", ev.UID,
			"owner", ev.OwnerUID,
			"error", err,
		)
		return
	}
	metrics.EmbeddingSyncs.WithLabelValues(metrics.StatusOK).Inc()
}
