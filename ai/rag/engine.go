// Package rag implements retrieval-augmented answering over a user's notes:
// embed the question, retrieve the nearest note texts from the asker's
// namespace, and condition the generator on that context.
package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/notesage/ai/metrics"
	"github.com/hrygo/notesage/ai/vector"
)

// ErrInvalidQuery is returned for an empty question.
var ErrInvalidQuery = errors.New("rag: invalid query")

// ErrAnswerFailed is returned when any pipeline stage fails. There is no
// partial-answer fallback; callers surface a generic retry message.
var ErrAnswerFailed = errors.New("rag: answer failed")

// NoAnswerSignal is the sentence the engine guarantees appears in the answer
// when the notes cannot support one.
const NoAnswerSignal = "I cannot answer that from your notes."

const defaultTopK = 5

// answerPromptFormat grounds the generator in retrieved note context. The
// refusal instruction is a hard behavioral requirement: without it the model
// hallucinates answers when the context is empty or irrelevant.
const answerPromptFormat = `Use the notes below to answer the question.
Answer only from the notes. If the notes do not contain the answer, reply exactly: %q

Notes:
%s

Question: %s`

// Embedder is the slice of the embedding provider the engine needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator is the prompt-to-text capability the engine needs.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Answer is a grounded answer with its supporting note ids.
type Answer struct {
	AnswerText string
	// SourceIDs lists the note uids whose content grounded the answer,
	// ordered by descending similarity. Empty when nothing matched.
	SourceIDs []string
}

// Engine composes embedding, retrieval, and generation into one operation.
type Engine struct {
	embedder  Embedder
	index     vector.Index
	generator Generator
	topK      int
}

// NewEngine creates an Engine. topK values below 1 default to 5.
func NewEngine(embedder Embedder, index vector.Index, generator Generator, topK int) *Engine {
	if topK < 1 {
		topK = defaultTopK
	}
	return &Engine{
		embedder:  embedder,
		index:     index,
		generator: generator,
		topK:      topK,
	}
}

// Answer answers a natural-language question from the asker's own notes.
func (e *Engine) Answer(ctx context.Context, question, askerUID string) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrInvalidQuery
	}
	if askerUID == "" {
		return nil, errors.Wrap(ErrInvalidQuery, "asker uid is required")
	}

	start := time.Now()
	answer, err := e.answer(ctx, question, askerUID)
	metrics.AnswerDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Answers.WithLabelValues(metrics.StatusError).Inc()
		return nil, err
	}
	metrics.Answers.WithLabelValues(metrics.StatusOK).Inc()
	return answer, nil
}

func (e *Engine) answer(ctx context.Context, question, askerUID string) (*Answer, error) {
	qVec, err := e.embedder.Embed(ctx, question)
	if err != nil {
		return nil, errors.Wrapf(ErrAnswerFailed, "embed question: %v", err)
	}

	matches, err := e.index.Query(ctx, askerUID, qVec, e.topK)
	if err != nil {
		return nil, errors.Wrapf(ErrAnswerFailed, "query index: %v", err)
	}

	// Nothing indexed for this user: answer deterministically instead of
	// asking the generator to refuse.
	if len(matches) == 0 {
		return &Answer{AnswerText: NoAnswerSignal, SourceIDs: []string{}}, nil
	}

	prompt := fmt.Sprintf(answerPromptFormat, NoAnswerSignal, contextBlock(matches), question)
	text, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, errors.Wrapf(ErrAnswerFailed, "generate answer: %v", err)
	}

	sourceIDs := make([]string, 0, len(matches))
	for _, m := range matches {
		sourceIDs = append(sourceIDs, m.ID)
	}
	return &Answer{AnswerText: text, SourceIDs: sourceIDs}, nil
}

// contextBlock renders matches as bullet lines, preserving the
// descending-similarity order returned by the index.
func contextBlock(matches []vector.Match) string {
	var b strings.Builder
	for i, m := range matches {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(m.SourceText)
	}
	return b.String()
}
