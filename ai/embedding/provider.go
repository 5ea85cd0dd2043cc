// Package embedding wraps a fixed-length text-embedding capability behind a
// narrow interface so any OpenAI-compatible provider can be substituted.
package embedding

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

// ErrEmptyInput is returned when the input text is empty or whitespace-only.
// Callers must treat this as "skip embedding", not as a retryable failure.
var ErrEmptyInput = errors.New("embedding: empty input")

// ErrUnavailable is returned when the underlying model cannot be invoked.
var ErrUnavailable = errors.New("embedding: provider unavailable")

// Provider converts free text into fixed-length, L2-normalized vectors.
type Provider interface {
	// Embed generates the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the vector dimension.
	Dimensions() int

	// Warmup issues a lightweight request to absorb the one-time provider
	// setup cost outside of user request deadlines. Best-effort.
	Warmup(ctx context.Context)
}

// Config represents embedding provider configuration.
type Config struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	Dimensions int
}

// embeddingsClient is the slice of the OpenAI client the provider needs.
type embeddingsClient interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

type provider struct {
	cfg Config

	// The client is created once, on first use. Concurrent first callers
	// share a single initialization.
	initOnce sync.Once
	client   embeddingsClient
}

// NewProvider creates a Provider for any OpenAI-compatible embedding service.
// The underlying client is initialized lazily on first call.
func NewProvider(cfg Config) Provider {
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = 1024
	}
	return &provider{cfg: cfg}
}

// newProviderWithClient is used by tests to inject a fake client.
func newProviderWithClient(cfg Config, client embeddingsClient) Provider {
	return &provider{cfg: cfg, client: client}
}

func (p *provider) init() {
	p.initOnce.Do(func() {
		if p.client != nil {
			return
		}
		clientConfig := openai.DefaultConfig(p.cfg.APIKey)
		if p.cfg.BaseURL != "" {
			clientConfig.BaseURL = p.cfg.BaseURL
		}
		p.client = openai.NewClientWithConfig(clientConfig)
	})
}

func (p *provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	p.init()

	req := openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(p.cfg.Model),
		Dimensions: p.cfg.Dimensions,
	}
	resp, err := p.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, errors.Wrapf(ErrUnavailable, "create embeddings failed: %v", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.Wrap(ErrUnavailable, "empty embedding response")
	}

	vec := resp.Data[0].Embedding
	if len(vec) != p.cfg.Dimensions {
		return nil, errors.Wrapf(ErrUnavailable, "unexpected embedding dimension: got %d, want %d", len(vec), p.cfg.Dimensions)
	}
	normalize(vec)
	return vec, nil
}

func (p *provider) Dimensions() int {
	return p.cfg.Dimensions
}

func (p *provider) Warmup(ctx context.Context) {
	start := time.Now()
	if _, err := p.Embed(ctx, "ping"); err != nil {
		slog.Warn("embedding warmup failed", "error", err)
		return
	}
	slog.Info("embedding provider warmed up",
		"model", p.cfg.Model,
		"duration", time.Since(start),
	)
}

// normalize scales vec to unit L2 length in place, so downstream similarity
// search can use plain dot product as cosine similarity. Zero vectors are
// left unchanged.
func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
}
