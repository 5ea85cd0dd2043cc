// Package server wires the HTTP surface, the record store, and the AI
// components together.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hrygo/notesage/ai/embedding"
	"github.com/hrygo/notesage/ai/lifecycle"
	"github.com/hrygo/notesage/ai/llm"
	"github.com/hrygo/notesage/ai/pipeline"
	"github.com/hrygo/notesage/ai/rag"
	"github.com/hrygo/notesage/ai/vector"
	"github.com/hrygo/notesage/internal/profile"
	"github.com/hrygo/notesage/server/router/apiv1"
	"github.com/hrygo/notesage/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	reconciler *lifecycle.Reconciler

	embedder   embedding.Provider
	llmService llm.Service
}

// NewServer assembles the full service. AI components are only constructed
// when an LLM API key is configured; without one the note CRUD surface still
// works and the AI endpoints return 503.
func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	e := echo.New()
	e.Debug = profile.IsDev()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
			)
			return nil
		},
	}))

	s := &Server{
		Profile:    profile,
		Store:      store,
		echoServer: e,
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	var engine *rag.Engine
	var summarizer *pipeline.Summarizer
	var synchronizer *lifecycle.Synchronizer

	if profile.IsAIEnabled() {
		s.embedder = embedding.NewProvider(embedding.Config{
			Provider:   profile.EmbeddingProvider,
			Model:      profile.EmbeddingModel,
			APIKey:     profile.EmbeddingAPIKey,
			BaseURL:    profile.EmbeddingBaseURL,
			Dimensions: profile.EmbeddingDimensions,
		})

		llmService, err := llm.NewService(&llm.Config{
			Provider: profile.LLMProvider,
			Model:    profile.LLMModel,
			APIKey:   profile.LLMAPIKey,
			BaseURL:  profile.LLMBaseURL,
			Timeout:  profile.LLMTimeout,
			RPS:      profile.LLMRPS,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create llm service")
		}
		s.llmService = llmService

		index, err := s.newVectorIndex()
		if err != nil {
			return nil, errors.Wrap(err, "failed to create vector index")
		}

		synchronizer = lifecycle.NewSynchronizer(s.embedder, index, 4)
		engine = rag.NewEngine(s.embedder, index, llmService, profile.RAGTopK)
		summarizer, err = pipeline.NewSummarizer(llmService)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create summarizer")
		}

		if profile.ReconcileInterval > 0 {
			if profile.VectorBackend == "store" {
				s.reconciler = lifecycle.NewReconciler(store, synchronizer,
					time.Duration(profile.ReconcileInterval)*time.Second)
			} else {
				// The embedded index cannot enumerate its entries from the
				// store side, so there is nothing to reconcile against.
				slog.Warn("reconciliation requires the store vector backend, disabling",
					"backend", profile.VectorBackend)
			}
		}
	} else {
		slog.Warn("LLM API key not configured, AI features are disabled")
	}

	apiv1.NewAPIV1Service(profile, store, synchronizer, engine, summarizer).RegisterRoutes(e)

	return s, nil
}

func (s *Server) newVectorIndex() (vector.Index, error) {
	switch s.Profile.VectorBackend {
	case "memory":
		return vector.NewEmbeddedIndex(s.Profile.EmbeddingDimensions)
	default:
		return vector.NewStoreIndex(s.Store, s.Profile.EmbeddingModel), nil
	}
}

// Start begins serving. It returns immediately; the listener runs in its own
// goroutine so the caller can wait on the context.
func (s *Server) Start(ctx context.Context) error {
	if s.embedder != nil {
		// Absorb the one-time provider setup cost off the request path.
		go s.embedder.Warmup(ctx)
	}
	if s.llmService != nil {
		go s.llmService.Warmup(ctx)
	}
	if s.reconciler != nil {
		go s.reconciler.Run(ctx)
	}

	go func() {
		var err error
		if s.Profile.UNIXSock != "" {
			err = s.echoServer.Start(s.Profile.UNIXSock)
		} else {
			err = s.echoServer.Start(fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port))
		}
		if err != nil {
			slog.Info("http server stopped", "error", err)
		}
	}()
	return nil
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	slog.Info("notesage stopped properly")
}
