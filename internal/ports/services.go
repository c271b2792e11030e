package ports

import (
	"context"
	"time"

	"github.com/notesweb/core/internal/domain/entities"
)

// MarkdownRenderer converts raw Markdown into an HTML document
type MarkdownRenderer interface {
	Render(source []byte) (*entities.Document, error)
}

// NoteService resolves a (folder, id) pair into rendered HTML
type NoteService interface {
	Resolve(ctx context.Context, ref entities.NoteRef) (*entities.RenderedNote, error)
}

// IndexService builds the links shown on the home page
type IndexService interface {
	Links(ctx context.Context) ([]entities.Link, error)
}

// NoteMetrics records note resolution and index walk observations
type NoteMetrics interface {
	ObserveResolve(outcome entities.ResolveOutcome)
	ObserveWalk(duration time.Duration, notes int, err error)
}
