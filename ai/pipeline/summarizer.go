package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/notesage/ai/metrics"
)

// ErrInvalidInput is returned when there is no text to summarize.
var ErrInvalidInput = errors.New("pipeline: invalid input")

// ErrSummarizationFailed wraps generator failures during a summary run.
var ErrSummarizationFailed = errors.New("pipeline: summarization failed")

// Templates select the summarization style. Both run through the same
// graph; only the prompt differs.
const (
	// SingleNoteTemplate condenses one note into a few lines.
	SingleNoteTemplate = "single_note"
	// DashboardTemplate reads across all of a user's notes and writes a
	// short emotional well-being check-in.
	DashboardTemplate = "dashboard"
)

const (
	stateKeyText     = "text"
	stateKeyTemplate = "template"
	stateKeySummary  = "summary"

	nodeSummarize = "summarize"
)

const singleNotePromptFormat = `Summarize the following note in 3-4 lines:

%s`

const dashboardPromptFormat = `You are a caring companion reading someone's recent notes. Based on the notes below, reflect on their overall mood, notice any recurring patterns, and offer one or two gentle, practical tips. Write a single warm paragraph addressed to them directly.

Notes:
%s`

// Generator is the prompt-to-text capability the summarizer needs.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Summarizer produces summaries by running a compiled start -> summarize ->
// end graph. One instance serves every template.
type Summarizer struct {
	generator Generator
	runnable  *Runnable
}

// NewSummarizer builds and compiles the summarization graph.
func NewSummarizer(generator Generator) (*Summarizer, error) {
	s := &Summarizer{generator: generator}
	runnable, err := NewGraph().
		AddNode(nodeSummarize, s.summarize).
		AddEdge(Start, nodeSummarize).
		AddEdge(nodeSummarize, End).
		Compile()
	if err != nil {
		return nil, err
	}
	s.runnable = runnable
	return s, nil
}

// Run summarizes text using the given template and returns the summary.
func (s *Summarizer) Run(ctx context.Context, template, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		metrics.Summaries.WithLabelValues(metrics.StatusError).Inc()
		return "", ErrInvalidInput
	}
	if template != SingleNoteTemplate && template != DashboardTemplate {
		metrics.Summaries.WithLabelValues(metrics.StatusError).Inc()
		return "", errors.Wrapf(ErrInvalidInput, "unknown template %q", template)
	}

	state, err := s.runnable.Invoke(ctx, State{
		stateKeyText:     text,
		stateKeyTemplate: template,
	})
	if err != nil {
		metrics.Summaries.WithLabelValues(metrics.StatusError).Inc()
		return "", errors.Wrapf(ErrSummarizationFailed, "%v", err)
	}
	metrics.Summaries.WithLabelValues(metrics.StatusOK).Inc()
	return state[stateKeySummary], nil
}

func (s *Summarizer) summarize(ctx context.Context, state State) error {
	var prompt string
	switch state[stateKeyTemplate] {
	case DashboardTemplate:
		prompt = fmt.Sprintf(dashboardPromptFormat, state[stateKeyText])
	default:
		prompt = fmt.Sprintf(singleNotePromptFormat, state[stateKeyText])
	}

	summary, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return errors.Wrap(err, "generate summary")
	}
	state[stateKeySummary] = summary
	return nil
}
