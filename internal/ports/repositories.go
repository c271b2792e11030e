package ports

import (
	"context"

	"github.com/notesweb/core/internal/domain/entities"
)

// NoteRepository defines the interface for reading notes from the notes root
type NoteRepository interface {
	Root() string
	Extension() string
	Walk(ctx context.Context) ([]entities.Note, error)
	PathFor(dir, id string) (string, error)
	Read(ctx context.Context, path string) ([]byte, error)
	Ping() error
}
