package lifecycle

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/notesage/ai/metrics"
	"github.com/hrygo/notesage/store"
)

// Reconciler periodically compares the primary record store against the
// vector index and repairs drift left behind by failed best-effort
// synchronizations: stale vectors whose note is gone, and notes whose
// embedding never landed.
//
// The sweep holds the same best-effort contract as the synchronizer itself.
// It only supports the store-backed index, where indexed ids can be listed.
type Reconciler struct {
	store    *store.Store
	sync     *Synchronizer
	interval time.Duration
}

// NewReconciler creates a Reconciler sweeping at the given interval.
func NewReconciler(s *store.Store, sync *Synchronizer, interval time.Duration) *Reconciler {
	return &Reconciler{store: s, sync: sync, interval: interval}
}

// Run sweeps on a ticker until the context is canceled.
func (r *Reconciler) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	slog.Info("index reconciliation enabled", "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep runs a single reconciliation pass over all owners.
func (r *Reconciler) Sweep(ctx context.Context) {
	owners, err := r.store.ListNoteOwnerUIDs(ctx)
	if err != nil {
		metrics.ReconcileSweeps.WithLabelValues(metrics.StatusError).Inc()
		slog.Error("reconcile: failed to list note owners", "error", err)
		return
	}

	var pruned, repaired int
	for _, owner := range owners {
		p, re, err := r.sweepOwner(ctx, owner)
		if err != nil {
			slog.Error("reconcile: owner sweep failed", "owner", owner, "error", err)
			continue
		}
		pruned += p
		repaired += re
	}

	metrics.ReconcileSweeps.WithLabelValues(metrics.StatusOK).Inc()
	if pruned > 0 || repaired > 0 {
		slog.Info("reconcile sweep completed",
			"owners", len(owners),
			"pruned", pruned,
			"repaired", repaired,
		)
	}
}

func (r *Reconciler) sweepOwner(ctx context.Context, owner string) (pruned, repaired int, err error) {
	notes, err := r.store.ListNotes(ctx, &store.FindNote{OwnerUID: &owner})
	if err != nil {
		return 0, 0, err
	}
	indexed, err := r.store.ListNoteEmbeddingUIDs(ctx, owner)
	if err != nil {
		return 0, 0, err
	}

	noteByUID := make(map[string]*store.Note, len(notes))
	for _, n := range notes {
		noteByUID[n.UID] = n
	}
	indexedSet := make(map[string]struct{}, len(indexed))
	for _, uid := range indexed {
		indexedSet[uid] = struct{}{}
	}

	// Prune vectors whose note no longer exists (failed delete-on-delete).
	for _, uid := range indexed {
		if _, ok := noteByUID[uid]; !ok {
			r.sync.OnNoteDeleted(ctx, uid, owner)
			pruned++
		}
	}

	// Re-embed notes that should be indexed but are not (failed create-time
	// embedding that was never retried).
	for _, n := range notes {
		if strings.TrimSpace(n.Content) == "" {
			continue
		}
		if _, ok := indexedSet[n.UID]; !ok {
			r.sync.OnNoteUpdated(ctx, NoteEvent{UID: n.UID, OwnerUID: n.OwnerUID, Content: n.Content})
			repaired++
		}
	}
	return pruned, repaired, nil
}
