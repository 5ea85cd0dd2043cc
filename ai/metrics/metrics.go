// Package metrics provides prometheus instrumentation for the AI pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
	StatusSkip  = "skip"
)

var (
	// EmbeddingSyncs counts lifecycle synchronization attempts (note
	// create/update events driving embed + upsert).
	EmbeddingSyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notesage_embedding_syncs_total",
		Help: "Note lifecycle embedding synchronizations by status.",
	}, []string{"status"})

	// EmbeddingDeletes counts index deletions driven by note deletion.
	EmbeddingDeletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notesage_embedding_deletes_total",
		Help: "Note lifecycle embedding deletions by status.",
	}, []string{"status"})

	// Answers counts retrieval-augmented answer requests.
	Answers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notesage_rag_answers_total",
		Help: "Retrieval-augmented answers by status.",
	}, []string{"status"})

	// AnswerDuration observes end-to-end answer latency.
	AnswerDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "notesage_rag_answer_duration_seconds",
		Help:    "End-to-end retrieval-augmented answer latency.",
		Buckets: prometheus.DefBuckets,
	})

	// Summaries counts summarization pipeline runs.
	Summaries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notesage_summaries_total",
		Help: "Summarization pipeline runs by status.",
	}, []string{"status"})

	// ReconcileSweeps counts reconciliation sweeps.
	ReconcileSweeps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notesage_reconcile_sweeps_total",
		Help: "Vector index reconciliation sweeps by status.",
	}, []string{"status"})
)
