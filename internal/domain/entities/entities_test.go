package entities

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNote(t *testing.T) {
	root := filepath.Join("srv", "notes")

	note, err := NewNote(root, filepath.Join(root, "notes.md"), ".md")
	require.NoError(t, err)
	assert.Equal(t, "notes", note.ID)
	assert.Equal(t, ".", note.Parent)
	assert.Equal(t, filepath.Join(root, "notes.md"), note.Path)

	nested, err := NewNote(root, filepath.Join(root, "sub", "deeper", "todo.md"), ".md")
	require.NoError(t, err)
	assert.Equal(t, "todo", nested.ID)
	assert.Equal(t, filepath.Join("sub", "deeper"), nested.Parent)
	assert.Equal(t, filepath.Join(root, nested.Parent, nested.ID+".md"), nested.Path)
}

func TestNewNoteStripsOnlyTheExtension(t *testing.T) {
	note, err := NewNote("root", filepath.Join("root", "a.md.draft.md"), ".md")
	require.NoError(t, err)
	assert.Equal(t, "a.md.draft", note.ID)
}

func TestNewNoteRejects(t *testing.T) {
	_, err := NewNote("root", filepath.Join("root", "readme.txt"), ".md")
	assert.True(t, errors.Is(err, ErrNotANote))

	_, err = NewNote("root", filepath.Join("root", ".md"), ".md")
	assert.True(t, errors.Is(err, ErrNotANote))

	_, err = NewNote("root", filepath.Join("elsewhere", "a.md"), ".md")
	assert.True(t, errors.Is(err, ErrOutsideRoot))
}

func TestNoteFolderAndHref(t *testing.T) {
	root := Note{Parent: ".", ID: "a"}
	assert.Equal(t, "root-folder", root.Folder("root-folder"))
	assert.Equal(t, "/root-folder/a", root.Href("root-folder"))
	assert.Equal(t, "a.md", root.Label(".md"))

	nested := Note{Parent: filepath.Join("sub", "my notes"), ID: "b c"}
	assert.Equal(t, "sub/my notes", nested.Folder("root-folder"))
	assert.Equal(t, "/sub/my%20notes/b%20c", nested.Href("root-folder"))
	assert.Equal(t, "sub/my notes/b c.md", nested.Label(".md"))
}

func TestParseNoteRef(t *testing.T) {
	tests := []struct {
		path   string
		folder string
		id     string
	}{
		{"/root-folder/a", "root-folder", "a"},
		{"/sub/b", "sub", "b"},
		{"/sub/deeper/c", "sub/deeper", "c"},
		{"sub/b/", "sub", "b"},
		{"/my notes/b c", "my notes", "b c"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			ref, err := ParseNoteRef(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.folder, ref.Folder)
			assert.Equal(t, tt.id, ref.ID)
		})
	}
}

func TestParseNoteRefMalformed(t *testing.T) {
	for _, path := range []string{"/", "/a", "/../a", "/sub/../a", "/sub//a", "/./a", `/sub\x/a`} {
		t.Run(path, func(t *testing.T) {
			_, err := ParseNoteRef(path)
			assert.True(t, errors.Is(err, ErrMalformedPath), "got %v", err)
		})
	}
}

func TestNoteRefDir(t *testing.T) {
	assert.Equal(t, ".", NoteRef{Folder: "root-folder", ID: "a"}.Dir("root-folder"))
	assert.Equal(t, filepath.Join("sub", "deeper"), NoteRef{Folder: "sub/deeper", ID: "a"}.Dir("root-folder"))
}

func TestNoteRefHrefRoundTrip(t *testing.T) {
	ref := NoteRef{Folder: "sub/my notes", ID: "b?c"}
	assert.Equal(t, "/sub/my%20notes/b%3Fc", ref.Href())
}
