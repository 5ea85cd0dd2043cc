// Package llm provides the prompt-to-text generation service over any
// OpenAI-compatible chat completion provider.
package llm

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// ErrUnavailable is returned when the generation provider cannot be invoked
// or returns an unusable response.
var ErrUnavailable = errors.New("llm: generation unavailable")

// Service is the text generation service interface. Summarization and
// question answering share this capability.
type Service interface {
	// Generate produces text for a single prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// Warmup sends a lightweight ping request to establish and warm up the
	// provider connection. Best-effort.
	Warmup(ctx context.Context)
}

// Config represents generation service configuration.
type Config struct {
	Provider    string // zai, deepseek, openai, siliconflow, dashscope, ollama
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 2048
	Temperature float32 // default: 0.7
	Timeout     int     // request timeout in seconds (default: 120)
	RPS         int     // client-side rate limit, requests per second (default: 2)
}

type service struct {
	client      completionsClient
	limiter     *rate.Limiter
	model       string
	maxTokens   int
	temperature float32
	timeout     int
}

// completionsClient is the slice of the OpenAI client the service needs.
type completionsClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewService creates a new generation Service. The base URL is expected to be
// resolved already (the profile applies per-provider defaults).
func NewService(cfg *Config) (Service, error) {
	if cfg.Model == "" {
		return nil, errors.New("llm: model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = newHTTPClient(cfg.Timeout)

	return newServiceWithClient(cfg, openai.NewClientWithConfig(clientConfig)), nil
}

func newServiceWithClient(cfg *Config, client completionsClient) Service {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.7
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = 2
	}
	return &service{
		client:      client,
		limiter:     rate.NewLimiter(rate.Limit(rps), rps),
		model:       cfg.Model,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     cfg.Timeout,
	}
}

func (s *service) Generate(ctx context.Context, prompt string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", errors.Wrapf(ErrUnavailable, "rate limiter: %v", err)
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return "", errors.Wrapf(ErrUnavailable, "chat completion failed: %v", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.Wrap(ErrUnavailable, "empty completion response")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.Wrap(ErrUnavailable, "blank completion content")
	}
	return content, nil
}

func (s *service) Warmup(ctx context.Context) {
	start := time.Now()
	_, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "ping"},
		},
		MaxTokens: 1,
	})
	if err != nil {
		slog.Warn("llm warmup failed", "model", s.model, "error", err)
		return
	}
	slog.Info("llm connection warmed up", "model", s.model, "duration", time.Since(start))
}

// newHTTPClient builds an HTTP client with connection pooling and an overall
// request timeout suited to slow generation backends.
func newHTTPClient(timeoutSeconds int) *http.Client {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 120
	}
	return &http.Client{
		Timeout: time.Duration(timeoutSeconds) * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}
