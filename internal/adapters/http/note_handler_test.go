package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notesweb/core/internal/application/templates"
	"github.com/notesweb/core/internal/domain/entities"
	"github.com/notesweb/core/internal/infrastructure/logger"
)

type structValidator struct {
	validate *validator.Validate
}

func (v *structValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

type stubNotes struct {
	note *entities.RenderedNote
	err  error
	refs []entities.NoteRef
}

func (s *stubNotes) Resolve(_ context.Context, ref entities.NoteRef) (*entities.RenderedNote, error) {
	s.refs = append(s.refs, ref)
	return s.note, s.err
}

type stubIndex struct {
	links []entities.Link
	err   error
}

func (s *stubIndex) Links(context.Context) ([]entities.Link, error) {
	return s.links, s.err
}

func newEcho(t *testing.T, notes *stubNotes, index *stubIndex, strict bool) *echo.Echo {
	t.Helper()
	pages, err := templates.New(templates.Config{Title: "Notes"})
	require.NoError(t, err)

	h := NewNoteHandler(notes, index, pages, logger.NewNop(), strict)

	e := echo.New()
	e.Validator = &structValidator{validate: validator.New()}
	e.GET("/", h.Index)
	e.GET("/*", h.Show)
	return e
}

func serve(e *echo.Echo, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestShowPassesParsedReference(t *testing.T) {
	notes := &stubNotes{note: &entities.RenderedNote{Title: "b", HTML: "<p>b</p>", Outcome: entities.OutcomeRendered}}
	e := newEcho(t, notes, &stubIndex{}, false)

	rec := serve(e, "/a/b/c")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<p>b</p>")
	assert.Contains(t, rec.Body.String(), "<title>b - Notes</title>")
	require.Len(t, notes.refs, 1)
	assert.Equal(t, entities.NoteRef{Folder: "a/b", ID: "c"}, notes.refs[0])
}

func TestShowStatusByOutcome(t *testing.T) {
	tests := []struct {
		name    string
		outcome entities.ResolveOutcome
		strict  bool
		want    int
	}{
		{"rendered", entities.OutcomeRendered, true, http.StatusOK},
		{"not found lenient", entities.OutcomeNotFound, false, http.StatusOK},
		{"not found strict", entities.OutcomeNotFound, true, http.StatusNotFound},
		{"unreadable lenient", entities.OutcomeUnreadable, false, http.StatusOK},
		{"unreadable strict", entities.OutcomeUnreadable, true, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes := &stubNotes{note: &entities.RenderedNote{Title: "Error", HTML: "<h1>Error</h1>", Outcome: tt.outcome}}
			e := newEcho(t, notes, &stubIndex{}, tt.strict)

			rec := serve(e, "/root-folder/x")
			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), "<h1>Error</h1>")
		})
	}
}

func TestShowErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"outside root", entities.ErrOutsideRoot, http.StatusBadRequest},
		{"malformed", entities.ErrMalformedPath, http.StatusBadRequest},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable},
		{"renderer", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEcho(t, &stubNotes{err: tt.err}, &stubIndex{}, false)
			assert.Equal(t, tt.want, serve(e, "/root-folder/x").Code)
		})
	}
}

func TestShowRejectsOverlongID(t *testing.T) {
	notes := &stubNotes{}
	e := newEcho(t, notes, &stubIndex{}, false)

	id := make([]byte, 300)
	for i := range id {
		id[i] = 'a'
	}

	rec := serve(e, "/root-folder/"+string(id))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, notes.refs)
}

func TestIndex(t *testing.T) {
	index := &stubIndex{links: []entities.Link{{Href: "/root-folder/a", Label: "a.md"}}}
	e := newEcho(t, &stubNotes{}, index, false)

	rec := serve(e, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<li><a href="/root-folder/a">a.md</a></li>`)
	assert.Contains(t, rec.Body.String(), "<title>Index - Notes</title>")

	e = newEcho(t, &stubNotes{}, &stubIndex{err: errors.New("permission denied")}, false)
	assert.Equal(t, http.StatusInternalServerError, serve(e, "/").Code)
}
