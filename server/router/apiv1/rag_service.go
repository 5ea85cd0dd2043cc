package apiv1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/notesage/ai/rag"
)

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	AnswerText string   `json:"answerText"`
	SourceIDs  []string `json:"sourceIds"`
}

// Ask answers a question from the calling user's notes. Answers are grounded
// exclusively in the asker's own namespace.
func (s *APIV1Service) Ask(c echo.Context) error {
	if s.Engine == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "AI features are not configured")
	}
	ctx := c.Request().Context()

	req := &askRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request").SetInternal(err)
	}

	answer, err := s.Engine.Answer(ctx, req.Question, currentUser(c))
	if err != nil {
		if errors.Is(err, rag.ErrInvalidQuery) {
			return echo.NewHTTPError(http.StatusBadRequest, "question cannot be empty")
		}
		// Internals stay in the log; the client gets a generic retry hint.
		return echo.NewHTTPError(http.StatusBadGateway, "failed to answer, please retry").SetInternal(err)
	}

	return c.JSON(http.StatusOK, &askResponse{
		AnswerText: answer.AnswerText,
		SourceIDs:  answer.SourceIDs,
	})
}
