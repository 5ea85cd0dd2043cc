package apiv1

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hrygo/notesage/ai/lifecycle"
	"github.com/hrygo/notesage/ai/pipeline"
	"github.com/hrygo/notesage/store"
)

type noteResponse struct {
	UID       string `json:"uid"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Summary   string `json:"summary"`
	CreatedTs int64  `json:"createdTs"`
	UpdatedTs int64  `json:"updatedTs"`
}

func convertNote(n *store.Note) *noteResponse {
	return &noteResponse{
		UID:       n.UID,
		Title:     n.Title,
		Content:   n.Content,
		Summary:   n.Summary,
		CreatedTs: n.CreatedTs,
		UpdatedTs: n.UpdatedTs,
	}
}

type createNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CreateNote creates a note for the calling user and kicks off best-effort
// embedding synchronization.
func (s *APIV1Service) CreateNote(c echo.Context) error {
	ctx := c.Request().Context()
	userUID := currentUser(c)

	req := &createNoteRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request").SetInternal(err)
	}

	now := time.Now().Unix()
	note, err := s.Store.CreateNote(ctx, &store.Note{
		UID:       uuid.NewString(),
		OwnerUID:  userUID,
		Title:     req.Title,
		Content:   req.Content,
		CreatedTs: now,
		UpdatedTs: now,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create note").SetInternal(err)
	}

	if s.Synchronizer != nil {
		s.Synchronizer.OnNoteCreated(ctx, lifecycle.NoteEvent{
			UID:      note.UID,
			OwnerUID: note.OwnerUID,
			Content:  note.Content,
		})
	}
	return c.JSON(http.StatusOK, convertNote(note))
}

// ListNotes lists the calling user's notes, most recently updated first.
func (s *APIV1Service) ListNotes(c echo.Context) error {
	ctx := c.Request().Context()
	userUID := currentUser(c)

	notes, err := s.Store.ListNotes(ctx, &store.FindNote{OwnerUID: &userUID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list notes").SetInternal(err)
	}

	list := make([]*noteResponse, 0, len(notes))
	for _, n := range notes {
		list = append(list, convertNote(n))
	}
	return c.JSON(http.StatusOK, list)
}

// GetNote returns a single note owned by the calling user.
func (s *APIV1Service) GetNote(c echo.Context) error {
	ctx := c.Request().Context()
	userUID := currentUser(c)
	noteUID := c.Param("id")

	note, err := s.Store.GetNote(ctx, &store.FindNote{UID: &noteUID, OwnerUID: &userUID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get note").SetInternal(err)
	}
	if note == nil {
		return echo.NewHTTPError(http.StatusNotFound, "note not found")
	}
	return c.JSON(http.StatusOK, convertNote(note))
}

type updateNoteRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// UpdateNote applies a partial update and re-synchronizes the embedding when
// the content changed.
func (s *APIV1Service) UpdateNote(c echo.Context) error {
	ctx := c.Request().Context()
	userUID := currentUser(c)
	noteUID := c.Param("id")

	req := &updateNoteRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request").SetInternal(err)
	}
	if req.Title == nil && req.Content == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "nothing to update")
	}

	existing, err := s.Store.GetNote(ctx, &store.FindNote{UID: &noteUID, OwnerUID: &userUID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get note").SetInternal(err)
	}
	if existing == nil {
		return echo.NewHTTPError(http.StatusNotFound, "note not found")
	}

	note, err := s.Store.UpdateNote(ctx, &store.UpdateNote{
		UID:       noteUID,
		OwnerUID:  userUID,
		Title:     req.Title,
		Content:   req.Content,
		UpdatedTs: time.Now().Unix(),
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update note").SetInternal(err)
	}

	if s.Synchronizer != nil && req.Content != nil {
		s.Synchronizer.OnNoteUpdated(ctx, lifecycle.NoteEvent{
			UID:      note.UID,
			OwnerUID: note.OwnerUID,
			Content:  note.Content,
		})
	}
	return c.JSON(http.StatusOK, convertNote(note))
}

// DeleteNote deletes a note and removes its embedding.
func (s *APIV1Service) DeleteNote(c echo.Context) error {
	ctx := c.Request().Context()
	userUID := currentUser(c)
	noteUID := c.Param("id")

	note, err := s.Store.GetNote(ctx, &store.FindNote{UID: &noteUID, OwnerUID: &userUID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get note").SetInternal(err)
	}
	if note == nil {
		return echo.NewHTTPError(http.StatusNotFound, "note not found")
	}

	if err := s.Store.DeleteNote(ctx, &store.DeleteNote{UID: noteUID, OwnerUID: userUID}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete note").SetInternal(err)
	}

	if s.Synchronizer != nil {
		s.Synchronizer.OnNoteDeleted(ctx, noteUID, userUID)
	}
	return c.NoContent(http.StatusNoContent)
}

type summarizeNoteResponse struct {
	Summary string `json:"summary"`
}

// SummarizeNote generates a short summary of a note and persists it on the
// note record.
func (s *APIV1Service) SummarizeNote(c echo.Context) error {
	if s.Summarizer == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "AI features are not configured")
	}
	ctx := c.Request().Context()
	userUID := currentUser(c)
	noteUID := c.Param("id")

	note, err := s.Store.GetNote(ctx, &store.FindNote{UID: &noteUID, OwnerUID: &userUID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get note").SetInternal(err)
	}
	if note == nil {
		return echo.NewHTTPError(http.StatusNotFound, "note not found")
	}

	summary, err := s.Summarizer.Run(ctx, pipeline.SingleNoteTemplate, note.Content)
	if err != nil {
		if errors.Is(err, pipeline.ErrInvalidInput) {
			return echo.NewHTTPError(http.StatusBadRequest, "note has no content to summarize")
		}
		return echo.NewHTTPError(http.StatusBadGateway, "failed to summarize note").SetInternal(err)
	}

	if _, err := s.Store.UpdateNote(ctx, &store.UpdateNote{
		UID:       noteUID,
		OwnerUID:  userUID,
		Summary:   &summary,
		UpdatedTs: time.Now().Unix(),
	}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to persist summary").SetInternal(err)
	}
	return c.JSON(http.StatusOK, &summarizeNoteResponse{Summary: summary})
}
