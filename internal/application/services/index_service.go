package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/notesweb/core/internal/domain/entities"
	"github.com/notesweb/core/internal/infrastructure/logger"
	"github.com/notesweb/core/internal/ports"
)

// IndexServiceConfig holds the index settings
type IndexServiceConfig struct {
	RootAlias string
	// URL path prefixes served by other routes, e.g. "/static/"
	ReservedPrefixes []string
}

// IndexService turns a walk of the notes root into index links
type IndexService struct {
	repo    ports.NoteRepository
	metrics ports.NoteMetrics
	logger  *logger.Logger
	cfg     IndexServiceConfig
}

// NewIndexService creates a new index service. metrics may be nil.
func NewIndexService(repo ports.NoteRepository, metrics ports.NoteMetrics, logger *logger.Logger, cfg IndexServiceConfig) *IndexService {
	return &IndexService{
		repo:    repo,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// Notes walks the notes root. An incomplete walk is an error.
func (s *IndexService) Notes(ctx context.Context) ([]entities.Note, error) {
	start := time.Now()
	notes, err := s.repo.Walk(ctx)
	if s.metrics != nil {
		s.metrics.ObserveWalk(time.Since(start), len(notes), err)
	}
	if err != nil {
		s.logger.ForContext(ctx).Errorw("failed to walk notes root", "root", s.repo.Root(), "error", err)
		return nil, fmt.Errorf("failed to build index: %w", err)
	}

	return notes, nil
}

// Links returns one link per note in walk order. Notes whose route is taken
// by another handler are left out.
func (s *IndexService) Links(ctx context.Context) ([]entities.Link, error) {
	notes, err := s.Notes(ctx)
	if err != nil {
		return nil, err
	}

	links := make([]entities.Link, 0, len(notes))
	for _, note := range notes {
		if !s.reachable(note) {
			s.logger.ForContext(ctx).Warnw("note unreachable from index", "path", note.Path)
			continue
		}
		links = append(links, entities.Link{
			Href:  note.Href(s.cfg.RootAlias),
			Label: note.Label(s.repo.Extension()),
		})
	}

	s.logger.Debugw("index built", "notes", len(links))
	return links, nil
}

// reachable reports whether GET on the note's href resolves to the note
func (s *IndexService) reachable(note entities.Note) bool {
	// a directory named like the alias is shadowed by the root
	if filepath.ToSlash(note.Parent) == s.cfg.RootAlias {
		return false
	}

	path := "/" + note.Folder(s.cfg.RootAlias) + "/" + note.ID
	for _, prefix := range s.cfg.ReservedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}
