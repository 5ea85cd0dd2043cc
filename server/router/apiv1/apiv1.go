// Package apiv1 exposes the REST surface. Every route is scoped to the
// calling user via the X-User-ID header; there is no cross-user access path.
package apiv1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/notesage/ai/lifecycle"
	"github.com/hrygo/notesage/ai/pipeline"
	"github.com/hrygo/notesage/ai/rag"
	"github.com/hrygo/notesage/internal/profile"
	"github.com/hrygo/notesage/store"
)

const (
	userHeader     = "X-User-ID"
	userContextKey = "notesage.user"
)

type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store

	// AI components. All nil when no LLM API key is configured; the
	// corresponding endpoints then answer 503.
	Synchronizer *lifecycle.Synchronizer
	Engine       *rag.Engine
	Summarizer   *pipeline.Summarizer
}

func NewAPIV1Service(
	profile *profile.Profile,
	store *store.Store,
	synchronizer *lifecycle.Synchronizer,
	engine *rag.Engine,
	summarizer *pipeline.Summarizer,
) *APIV1Service {
	return &APIV1Service{
		Profile:      profile,
		Store:        store,
		Synchronizer: synchronizer,
		Engine:       engine,
		Summarizer:   summarizer,
	}
}

// RegisterRoutes mounts all v1 routes on the echo instance.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1", requestIDMiddleware, s.userMiddleware)

	g.GET("/notes", s.ListNotes)
	g.POST("/notes", s.CreateNote)
	g.GET("/notes/:id", s.GetNote)
	g.PATCH("/notes/:id", s.UpdateNote)
	g.DELETE("/notes/:id", s.DeleteNote)
	g.POST("/notes/:id/summarize", s.SummarizeNote)
	g.POST("/rag/ask", s.Ask)
	g.POST("/dashboard/summary", s.DashboardSummary)
}

// requestIDMiddleware tags each request with a short correlation id.
func requestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderXRequestID, shortuuid.New())
		return next(c)
	}
}

// userMiddleware resolves the calling user. Requests without an identity are
// rejected before reaching any handler.
func (*APIV1Service) userMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userUID := c.Request().Header.Get(userHeader)
		if userUID == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing "+userHeader+" header")
		}
		c.Set(userContextKey, userUID)
		return next(c)
	}
}

func currentUser(c echo.Context) string {
	uid, _ := c.Get(userContextKey).(string)
	return uid
}
