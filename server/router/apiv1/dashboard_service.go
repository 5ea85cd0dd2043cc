package apiv1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/notesage/ai/pipeline"
	"github.com/hrygo/notesage/store"
)

type dashboardSummaryResponse struct {
	Summary string `json:"summary"`
}

// DashboardSummary reads across all of the calling user's notes and returns
// a short well-being check-in paragraph.
func (s *APIV1Service) DashboardSummary(c echo.Context) error {
	if s.Summarizer == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "AI features are not configured")
	}
	ctx := c.Request().Context()
	userUID := currentUser(c)

	notes, err := s.Store.ListNotes(ctx, &store.FindNote{OwnerUID: &userUID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list notes").SetInternal(err)
	}

	summary, err := s.Summarizer.Run(ctx, pipeline.DashboardTemplate, dashboardText(notes))
	if err != nil {
		if errors.Is(err, pipeline.ErrInvalidInput) {
			return echo.NewHTTPError(http.StatusBadRequest, "no notes to summarize")
		}
		return echo.NewHTTPError(http.StatusBadGateway, "failed to summarize, please retry").SetInternal(err)
	}
	return c.JSON(http.StatusOK, &dashboardSummaryResponse{Summary: summary})
}

// dashboardText flattens notes into titled blocks, skipping empty ones.
func dashboardText(notes []*store.Note) string {
	blocks := make([]string, 0, len(notes))
	for _, n := range notes {
		if strings.TrimSpace(n.Content) == "" {
			continue
		}
		if n.Title != "" {
			blocks = append(blocks, "Title: "+n.Title+"\n"+n.Content)
		} else {
			blocks = append(blocks, n.Content)
		}
	}
	return strings.Join(blocks, "\n\n")
}
