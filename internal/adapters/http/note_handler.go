package http

import (
	"context"
	"errors"
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/notesweb/core/internal/application/templates"
	"github.com/notesweb/core/internal/domain/entities"
	"github.com/notesweb/core/internal/infrastructure/logger"
	"github.com/notesweb/core/internal/ports"
)

// NoteHandler serves the index page and rendered notes
type NoteHandler struct {
	notes        ports.NoteService
	index        ports.IndexService
	pages        *templates.Templater
	logger       *logger.Logger
	strictStatus bool
}

// NewNoteHandler creates a new note handler. With strictStatus missing and
// unreadable notes answer 404 and 500 instead of 200.
func NewNoteHandler(notes ports.NoteService, index ports.IndexService, pages *templates.Templater, logger *logger.Logger, strictStatus bool) *NoteHandler {
	return &NoteHandler{
		notes:        notes,
		index:        index,
		pages:        pages,
		logger:       logger,
		strictStatus: strictStatus,
	}
}

// Index lists every note under the notes root
// @Summary Note index
// @Produce html
// @Success 200 {string} string "index page"
// @Failure 500 {string} string "notes root could not be walked"
// @Router / [get]
func (h *NoteHandler) Index(c echo.Context) error {
	links, err := h.index.Links(c.Request().Context())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "Index timed out").SetInternal(err)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to build note index").SetInternal(err)
	}

	fragment, err := h.pages.Index(links)
	if err != nil {
		return err
	}

	page, err := h.pages.Page("Index", fragment)
	if err != nil {
		return err
	}

	return c.HTML(http.StatusOK, page)
}

// Show renders {folder}/{id} from the notes root
// @Summary Render a note
// @Produce html
// @Param folder path string true "folder relative to the notes root, or the root alias"
// @Param id path string true "file name without extension"
// @Success 200 {string} string "rendered note or fallback document"
// @Failure 400 {string} string "malformed path"
// @Router /{folder}/{id} [get]
func (h *NoteHandler) Show(c echo.Context) error {
	ref, err := entities.ParseNoteRef(c.Request().URL.Path)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Malformed note path").SetInternal(err)
	}

	if err := c.Validate(&ref); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Malformed note path").SetInternal(err)
	}

	note, err := h.notes.Resolve(c.Request().Context(), ref)
	if err != nil {
		switch {
		case errors.Is(err, entities.ErrMalformedPath), errors.Is(err, entities.ErrOutsideRoot):
			return echo.NewHTTPError(http.StatusBadRequest, "Malformed note path").SetInternal(err)
		case errors.Is(err, context.DeadlineExceeded):
			return echo.NewHTTPError(http.StatusServiceUnavailable, "Note timed out").SetInternal(err)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to render note").SetInternal(err)
	}

	page, err := h.pages.Page(note.Title, template.HTML(note.HTML))
	if err != nil {
		return err
	}

	return c.HTML(h.status(note.Outcome), page)
}

func (h *NoteHandler) status(outcome entities.ResolveOutcome) int {
	if !h.strictStatus {
		return http.StatusOK
	}

	switch outcome {
	case entities.OutcomeNotFound:
		return http.StatusNotFound
	case entities.OutcomeUnreadable:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}
