package embedding

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbeddingsClient struct {
	vector []float32
	err    error
	calls  atomic.Int64
}

func (f *fakeEmbeddingsClient) CreateEmbeddings(_ context.Context, _ openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error) {
	f.calls.Add(1)
	if f.err != nil {
		return openai.EmbeddingResponse{}, f.err
	}
	return openai.EmbeddingResponse{
		Data: []openai.Embedding{{Embedding: f.vector}},
	}, nil
}

func testConfig(dims int) Config {
	return Config{
		Provider:   "siliconflow",
		Model:      "BAAI/bge-m3",
		APIKey:     "test-key",
		Dimensions: dims,
	}
}

func TestEmbedNormalizesVector(t *testing.T) {
	client := &fakeEmbeddingsClient{vector: []float32{3, 4, 0}}
	p := newProviderWithClient(testConfig(3), client)

	vec, err := p.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	require.Len(t, vec, 3)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
	assert.InDelta(t, 0.6, float64(vec[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(vec[1]), 1e-6)
}

func TestEmbedEmptyInput(t *testing.T) {
	client := &fakeEmbeddingsClient{vector: []float32{1, 0, 0}}
	p := newProviderWithClient(testConfig(3), client)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := p.Embed(context.Background(), text)
		assert.ErrorIs(t, err, ErrEmptyInput, "input %q", text)
	}
	assert.Equal(t, int64(0), client.calls.Load(), "blank input must not reach the model")
}

func TestEmbedProviderFailure(t *testing.T) {
	client := &fakeEmbeddingsClient{err: errors.New("connection refused")}
	p := newProviderWithClient(testConfig(3), client)

	_, err := p.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestEmbedDimensionMismatch(t *testing.T) {
	client := &fakeEmbeddingsClient{vector: []float32{1, 2}}
	p := newProviderWithClient(testConfig(3), client)

	_, err := p.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestLazyInitSingleClient(t *testing.T) {
	// Concurrent first callers must share one initialization.
	p := NewProvider(testConfig(4)).(*provider)

	var wg sync.WaitGroup
	clients := make([]embeddingsClient, 16)
	for i := range clients {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p.init()
			clients[i] = p.client
		}(i)
	}
	wg.Wait()

	require.NotNil(t, clients[0])
	for _, c := range clients[1:] {
		assert.Same(t, clients[0], c)
	}
}

func TestDimensionsDefault(t *testing.T) {
	p := NewProvider(Config{Model: "BAAI/bge-m3"})
	assert.Equal(t, 1024, p.Dimensions())
}
