package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/notesweb/core/internal/domain/entities"
	"github.com/notesweb/core/internal/infrastructure/logger"
	"github.com/notesweb/core/internal/ports"
)

// Reasons shown in the fallback document
const (
	ReasonNotAFile   = "Not a file"
	ReasonReadFailed = "Error reading file"
)

// NoteServiceConfig holds the resolver settings
type NoteServiceConfig struct {
	RootAlias  string
	TableClass string
}

// NoteService resolves note references into post-processed HTML
type NoteService struct {
	repo     ports.NoteRepository
	renderer ports.MarkdownRenderer
	metrics  ports.NoteMetrics
	logger   *logger.Logger
	cfg      NoteServiceConfig
}

// NewNoteService creates a new note service. metrics may be nil.
func NewNoteService(repo ports.NoteRepository, renderer ports.MarkdownRenderer, metrics ports.NoteMetrics, logger *logger.Logger, cfg NoteServiceConfig) *NoteService {
	return &NoteService{
		repo:     repo,
		renderer: renderer,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
	}
}

// Resolve reads folder/id from the notes root and renders it. Missing and
// unreadable notes are replaced by the fallback document; only malformed
// references, cancellation and renderer failures are returned as errors.
func (s *NoteService) Resolve(ctx context.Context, ref entities.NoteRef) (*entities.RenderedNote, error) {
	note := entities.Note{Parent: ref.Dir(s.cfg.RootAlias), ID: ref.ID}

	path, err := s.repo.PathFor(note.Parent, note.ID)
	if err != nil {
		return nil, err
	}
	note.Path = path

	outcome := entities.OutcomeRendered
	source, err := s.repo.Read(ctx, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		fields := []interface{}{"folder", ref.Folder, "id", ref.ID, "path", path, "error", err}
		if errors.Is(err, entities.ErrNotAFile) {
			outcome = entities.OutcomeNotFound
			source = fallbackMarkdown(ReasonNotAFile)
			s.logger.ForContext(ctx).Warnw("note not found", fields...)
		} else {
			outcome = entities.OutcomeUnreadable
			source = fallbackMarkdown(ReasonReadFailed)
			s.logger.ForContext(ctx).Errorw("note unreadable", fields...)
		}
	}

	doc, err := s.renderer.Render(source)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", path, err)
	}

	title := doc.Title
	switch {
	case outcome != entities.OutcomeRendered:
		title = "Error"
	case title == "":
		title = note.ID
	}

	if s.metrics != nil {
		s.metrics.ObserveResolve(outcome)
	}
	s.logger.ForContext(ctx).Debugw("note resolved", "path", path, "outcome", outcome)

	return &entities.RenderedNote{
		Note:    note,
		Title:   title,
		HTML:    PostProcess(doc.HTML, s.cfg.TableClass),
		Outcome: outcome,
	}, nil
}

func fallbackMarkdown(reason string) []byte {
	return []byte(fmt.Sprintf("# Error\n**%s**", reason))
}
