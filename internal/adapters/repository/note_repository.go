package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/notesweb/core/internal/domain/entities"
)

// NoteRepository reads Markdown notes from a directory tree on an afero filesystem
type NoteRepository struct {
	fs   afero.Fs
	root string
	ext  string
}

// NewNoteRepository creates a repository rooted at root. Files are notes when
// their extension equals ext.
func NewNoteRepository(fs afero.Fs, root, ext string) *NoteRepository {
	return &NoteRepository{
		fs:   fs,
		root: filepath.Clean(root),
		ext:  ext,
	}
}

// Root returns the cleaned notes root
func (r *NoteRepository) Root() string {
	return r.root
}

// Extension returns the Markdown extension including the dot
func (r *NoteRepository) Extension() string {
	return r.ext
}

// Walk lists every note below the root, depth-first and in lexical order
// within each directory. Symlinked directories are followed unless they lead
// back to a directory already on the current path. The first unreadable
// entry aborts the walk.
func (r *NoteRepository) Walk(ctx context.Context) ([]entities.Note, error) {
	info, err := r.fs.Stat(r.root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", r.root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("failed to walk %s: not a directory", r.root)
	}

	var notes []entities.Note
	if err := r.walkDir(ctx, r.root, []os.FileInfo{info}, &notes); err != nil {
		return nil, err
	}

	return notes, nil
}

func (r *NoteRepository) walkDir(ctx context.Context, dir string, ancestors []os.FileInfo, notes *[]entities.Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// sorted by name
	entries, err := afero.ReadDir(r.fs, dir)
	if err != nil {
		return fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := filepath.Join(dir, entry.Name())
		if entry.Mode()&os.ModeSymlink != 0 {
			// dangling links keep their Lstat info and fail on read
			if target, err := r.fs.Stat(path); err == nil {
				entry = target
			}
		}

		if entry.IsDir() {
			if onPath(ancestors, entry) {
				continue
			}
			if err := r.walkDir(ctx, path, append(ancestors, entry), notes); err != nil {
				return err
			}
			continue
		}

		if filepath.Ext(path) != r.ext {
			continue
		}

		note, err := entities.NewNote(r.root, path, r.ext)
		if err != nil {
			// a bare ".md" has no identifier
			continue
		}
		*notes = append(*notes, note)
	}

	return nil
}

func onPath(ancestors []os.FileInfo, dir os.FileInfo) bool {
	for _, ancestor := range ancestors {
		if os.SameFile(ancestor, dir) {
			return true
		}
	}
	return false
}

// PathFor computes root/dir/id+ext and refuses anything outside the root.
func (r *NoteRepository) PathFor(dir, id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid note id %q: %w", id, entities.ErrMalformedPath)
	}

	path := filepath.Join(r.root, dir, id+r.ext)
	rel, err := filepath.Rel(r.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", path, entities.ErrOutsideRoot)
	}

	return path, nil
}

// Read returns the raw contents of a note. A path that is not a regular file
// yields ErrNotAFile. A failed read or content that is not UTF-8 yields
// ErrReadFailed.
func (r *NoteRepository) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := r.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w: %w", path, entities.ErrNotAFile, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is %s: %w", path, info.Mode().Type(), entities.ErrNotAFile)
	}

	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", path, entities.ErrReadFailed, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("read %s: %w: invalid UTF-8", path, entities.ErrReadFailed)
	}

	return data, nil
}

// Ping checks that the notes root is a readable directory
func (r *NoteRepository) Ping() error {
	info, err := r.fs.Stat(r.root)
	if err != nil {
		return fmt.Errorf("notes root unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("notes root %s is not a directory", r.root)
	}

	f, err := r.fs.Open(r.root)
	if err != nil {
		return fmt.Errorf("notes root unreadable: %w", err)
	}
	defer f.Close()

	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("notes root unreadable: %w", err)
	}

	return nil
}
