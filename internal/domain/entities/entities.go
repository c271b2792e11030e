package entities

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Common errors
var (
	ErrNotAFile      = errors.New("not a file")
	ErrReadFailed    = errors.New("error reading file")
	ErrMalformedPath = errors.New("malformed note path")
	ErrOutsideRoot   = errors.New("path escapes notes root")
	ErrNotANote      = errors.New("not a markdown note")
)

// ResolveOutcome describes how a note request was satisfied
type ResolveOutcome string

const (
	OutcomeRendered   ResolveOutcome = "rendered"
	OutcomeNotFound   ResolveOutcome = "not_found"
	OutcomeUnreadable ResolveOutcome = "unreadable"
)

// Note is the content descriptor of one Markdown file below the notes root.
// Parent is relative to the root ("." for the root itself).
type Note struct {
	Parent string `json:"parent"`
	ID     string `json:"id"`
	Path   string `json:"path"`
}

// NewNote derives a descriptor from a file path found under root.
func NewNote(root, path, ext string) (Note, error) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ext) {
		return Note{}, fmt.Errorf("%s: %w", path, ErrNotANote)
	}

	id := strings.TrimSuffix(base, ext)
	if id == "" {
		return Note{}, fmt.Errorf("%s: %w", path, ErrNotANote)
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return Note{}, fmt.Errorf("failed to relate %s to %s: %w", path, root, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return Note{}, fmt.Errorf("%s: %w", path, ErrOutsideRoot)
	}

	parent := filepath.Dir(rel)
	return Note{
		Parent: parent,
		ID:     id,
		Path:   filepath.Join(root, parent, id+ext),
	}, nil
}

// Folder returns the URL folder of the note, using alias for the root.
func (n Note) Folder(alias string) string {
	if n.Parent == "." || n.Parent == "" {
		return alias
	}
	return filepath.ToSlash(n.Parent)
}

// Href builds the content route of the note.
func (n Note) Href(alias string) string {
	return NoteRef{Folder: n.Folder(alias), ID: n.ID}.Href()
}

// Label is the path of the note relative to the notes root.
func (n Note) Label(ext string) string {
	return filepath.ToSlash(filepath.Join(n.Parent, n.ID+ext))
}

// NoteRef is the (folder, id) pair addressed by a content request
type NoteRef struct {
	Folder string `validate:"required,max=1024"`
	ID     string `validate:"required,max=255"`
}

// ParseNoteRef splits a request path into folder and id. The last segment is
// the id, everything before it is the folder.
func ParseNoteRef(path string) (NoteRef, error) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) < 2 {
		return NoteRef{}, fmt.Errorf("%q: expected /{folder}/{id}: %w", path, ErrMalformedPath)
	}

	for _, segment := range segments {
		switch {
		case segment == "", segment == ".", segment == "..":
			return NoteRef{}, fmt.Errorf("%q: invalid segment %q: %w", path, segment, ErrMalformedPath)
		case strings.ContainsAny(segment, "\\\x00"):
			return NoteRef{}, fmt.Errorf("%q: invalid segment %q: %w", path, segment, ErrMalformedPath)
		}
	}

	last := len(segments) - 1
	return NoteRef{
		Folder: strings.Join(segments[:last], "/"),
		ID:     segments[last],
	}, nil
}

// Dir maps the folder onto a directory relative to the notes root.
func (r NoteRef) Dir(alias string) string {
	if r.Folder == alias {
		return "."
	}
	return filepath.FromSlash(r.Folder)
}

// Href builds the escaped /{folder}/{id} path.
func (r NoteRef) Href() string {
	segments := strings.Split(r.Folder, "/")
	segments = append(segments, r.ID)
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return "/" + strings.Join(segments, "/")
}

// Link is one entry of the index page
type Link struct {
	Href  string
	Label string
}

// Document is the output of the Markdown renderer
type Document struct {
	Title string
	HTML  string
}

// RenderedNote is the resolved HTML fragment for a request
type RenderedNote struct {
	Note    Note
	Title   string
	HTML    string
	Outcome ResolveOutcome
}
