package rag

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/notesage/ai/vector"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return f.vec, f.err
}

type fakeIndex struct {
	vector.Index

	matches  []vector.Match
	err      error
	lastNS   string
	lastTopK int
}

func (f *fakeIndex) Query(_ context.Context, namespace string, _ []float32, topK int) ([]vector.Match, error) {
	f.lastNS = namespace
	f.lastTopK = topK
	return f.matches, f.err
}

type fakeGenerator struct {
	text       string
	err        error
	calls      int
	lastPrompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	return f.text, f.err
}

func TestAnswerGroundsOnMatches(t *testing.T) {
	ctx := context.Background()
	index := &fakeIndex{matches: []vector.Match{
		{ID: "note-1", Score: 0.92, SourceText: "The WiFi password is hunter2."},
		{ID: "note-2", Score: 0.55, SourceText: "Router lives in the hallway closet."},
	}}
	gen := &fakeGenerator{text: "The WiFi password is hunter2."}
	engine := NewEngine(&fakeEmbedder{vec: []float32{1, 0}}, index, gen, 5)

	answer, err := engine.Answer(ctx, "what is the wifi password?", "alice")
	require.NoError(t, err)

	assert.Equal(t, "The WiFi password is hunter2.", answer.AnswerText)
	assert.Equal(t, []string{"note-1", "note-2"}, answer.SourceIDs)
	assert.Equal(t, "alice", index.lastNS)
	assert.Equal(t, 5, index.lastTopK)
	assert.Contains(t, gen.lastPrompt, "- The WiFi password is hunter2.")
	assert.Contains(t, gen.lastPrompt, "- Router lives in the hallway closet.")
	assert.Contains(t, gen.lastPrompt, NoAnswerSignal)
	assert.Contains(t, gen.lastPrompt, "what is the wifi password?")
}

func TestAnswerNoMatchesSkipsGenerator(t *testing.T) {
	gen := &fakeGenerator{text: "should not be used"}
	engine := NewEngine(&fakeEmbedder{vec: []float32{1, 0}}, &fakeIndex{}, gen, 5)

	answer, err := engine.Answer(context.Background(), "anything in my notes?", "bob")
	require.NoError(t, err)

	assert.Equal(t, NoAnswerSignal, answer.AnswerText)
	assert.NotNil(t, answer.SourceIDs)
	assert.Empty(t, answer.SourceIDs)
	assert.Zero(t, gen.calls)
}

func TestAnswerInvalidQuery(t *testing.T) {
	engine := NewEngine(&fakeEmbedder{}, &fakeIndex{}, &fakeGenerator{}, 5)

	for _, question := range []string{"", "   ", "\n\t"} {
		_, err := engine.Answer(context.Background(), question, "alice")
		assert.ErrorIs(t, err, ErrInvalidQuery)
	}

	_, err := engine.Answer(context.Background(), "a real question", "")
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestAnswerStageFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	t.Run("embed", func(t *testing.T) {
		engine := NewEngine(&fakeEmbedder{err: boom}, &fakeIndex{}, &fakeGenerator{}, 5)
		_, err := engine.Answer(ctx, "q", "alice")
		assert.ErrorIs(t, err, ErrAnswerFailed)
	})

	t.Run("query", func(t *testing.T) {
		engine := NewEngine(&fakeEmbedder{vec: []float32{1}}, &fakeIndex{err: boom}, &fakeGenerator{}, 5)
		_, err := engine.Answer(ctx, "q", "alice")
		assert.ErrorIs(t, err, ErrAnswerFailed)
	})

	t.Run("generate", func(t *testing.T) {
		index := &fakeIndex{matches: []vector.Match{{ID: "n1", SourceText: "text"}}}
		engine := NewEngine(&fakeEmbedder{vec: []float32{1}}, index, &fakeGenerator{err: boom}, 5)
		_, err := engine.Answer(ctx, "q", "alice")
		assert.ErrorIs(t, err, ErrAnswerFailed)
	})
}

func TestNewEngineTopKDefault(t *testing.T) {
	index := &fakeIndex{}
	engine := NewEngine(&fakeEmbedder{vec: []float32{1}}, index, &fakeGenerator{text: "x"}, 0)

	_, err := engine.Answer(context.Background(), "q", "alice")
	require.NoError(t, err)
	assert.Equal(t, 5, index.lastTopK)
}
