package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/notesweb/core/internal/adapters/markdown"
	"github.com/notesweb/core/internal/adapters/repository"
	"github.com/notesweb/core/internal/domain/entities"
	"github.com/notesweb/core/internal/infrastructure/logger"
)

// unreadableFs fails every open of one path while Stat keeps working.
type unreadableFs struct {
	afero.Fs
	path string
}

func (f *unreadableFs) Open(name string) (afero.File, error) {
	if filepath.Clean(name) == f.path {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return f.Fs.Open(name)
}

type recordingMetrics struct {
	outcomes []entities.ResolveOutcome
	walks    []int
	walkErrs []error
}

func (m *recordingMetrics) ObserveResolve(outcome entities.ResolveOutcome) {
	m.outcomes = append(m.outcomes, outcome)
}

func (m *recordingMetrics) ObserveWalk(_ time.Duration, notes int, err error) {
	m.walks = append(m.walks, notes)
	m.walkErrs = append(m.walkErrs, err)
}

func seedFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/notes/sub", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/notes/a.md", []byte("# Hi"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/notes/sub/b.md", []byte("- [ ] todo"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/notes/table.md", []byte("| a | b |\n|---|---|\n| [x] | 2 |\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/notes/meta.md", []byte("---\ntitle: Groceries\n---\n- [X] milk\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/notes/notes.txt", []byte("skip"), 0o644))
	return fs
}

type fixture struct {
	service *NoteService
	metrics *recordingMetrics
	logs    *observer.ObservedLogs
}

func newFixture(t *testing.T, fs afero.Fs) fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	metrics := &recordingMetrics{}
	repo := repository.NewNoteRepository(fs, "/notes", ".md")
	service := NewNoteService(
		repo,
		markdown.NewGoldmarkRenderer(markdown.DefaultOptions()),
		metrics,
		logger.FromZap(zap.New(core)),
		NoteServiceConfig{RootAlias: "root-folder", TableClass: tableClass},
	)
	return fixture{service: service, metrics: metrics, logs: logs}
}

func TestResolveRootNote(t *testing.T) {
	f := newFixture(t, seedFs(t))

	note, err := f.service.Resolve(context.Background(), entities.NoteRef{Folder: "root-folder", ID: "a"})
	require.NoError(t, err)

	assert.Contains(t, note.HTML, "<h1>Hi</h1>")
	assert.Equal(t, entities.OutcomeRendered, note.Outcome)
	assert.Equal(t, "a", note.Title)
	assert.Equal(t, entities.Note{Parent: ".", ID: "a", Path: filepath.Join("/notes", "a.md")}, note.Note)
	assert.Equal(t, []entities.ResolveOutcome{entities.OutcomeRendered}, f.metrics.outcomes)
}

func TestResolveNestedNoteReplacesCheckbox(t *testing.T) {
	f := newFixture(t, seedFs(t))

	note, err := f.service.Resolve(context.Background(), entities.NoteRef{Folder: "sub", ID: "b"})
	require.NoError(t, err)
	assert.Contains(t, note.HTML, UncheckedBox+" todo")
	assert.NotContains(t, note.HTML, "[ ]")
}

func TestResolveStylesTables(t *testing.T) {
	f := newFixture(t, seedFs(t))

	note, err := f.service.Resolve(context.Background(), entities.NoteRef{Folder: "root-folder", ID: "table"})
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(note.HTML, `<table class="pure-table pure-table-horizontal">`))
	assert.Contains(t, note.HTML, CheckedBox)
}

func TestResolveUsesFrontMatterTitle(t *testing.T) {
	f := newFixture(t, seedFs(t))

	note, err := f.service.Resolve(context.Background(), entities.NoteRef{Folder: "root-folder", ID: "meta"})
	require.NoError(t, err)
	assert.Equal(t, "Groceries", note.Title)
	assert.Contains(t, note.HTML, CheckedBox+" milk")
	assert.NotContains(t, note.HTML, "title:")
}

func TestResolveMissingNoteFallsBack(t *testing.T) {
	f := newFixture(t, seedFs(t))

	for _, ref := range []entities.NoteRef{
		{Folder: "root-folder", ID: "missing"},
		{Folder: "nowhere", ID: "a"},
		{Folder: "root-folder", ID: "sub"},
	} {
		note, err := f.service.Resolve(context.Background(), ref)
		require.NoError(t, err)
		assert.Equal(t, entities.OutcomeNotFound, note.Outcome)
		assert.Contains(t, note.HTML, "<h1>Error</h1>")
		assert.Contains(t, note.HTML, "<strong>Not a file</strong>")
	}

	warnings := f.logs.FilterMessage("note not found").All()
	require.Len(t, warnings, 3)
	assert.Equal(t, zapcore.WarnLevel, warnings[0].Level)
	assert.Zero(t, f.logs.FilterMessage("note unreadable").Len())
}

func TestResolveUnreadableNoteIsDistinguishable(t *testing.T) {
	fs := &unreadableFs{Fs: seedFs(t), path: filepath.Clean("/notes/a.md")}
	f := newFixture(t, fs)

	note, err := f.service.Resolve(context.Background(), entities.NoteRef{Folder: "root-folder", ID: "a"})
	require.NoError(t, err)

	assert.Equal(t, entities.OutcomeUnreadable, note.Outcome)
	assert.Contains(t, note.HTML, "<strong>Error reading file</strong>")
	assert.Equal(t, "Error", note.Title)

	errs := f.logs.FilterMessage("note unreadable").All()
	require.Len(t, errs, 1)
	assert.Equal(t, zapcore.ErrorLevel, errs[0].Level)
	assert.Zero(t, f.logs.FilterMessage("note not found").Len())
	assert.Equal(t, []entities.ResolveOutcome{entities.OutcomeUnreadable}, f.metrics.outcomes)
}

func TestResolveRejectsTraversal(t *testing.T) {
	f := newFixture(t, seedFs(t))

	_, err := f.service.Resolve(context.Background(), entities.NoteRef{Folder: "..", ID: "passwd"})
	assert.ErrorIs(t, err, entities.ErrOutsideRoot)
}

func TestResolveCancelled(t *testing.T) {
	f := newFixture(t, seedFs(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.service.Resolve(ctx, entities.NoteRef{Folder: "root-folder", ID: "a"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveInvalidUTF8IsUnreadable(t *testing.T) {
	fs := seedFs(t)
	require.NoError(t, afero.WriteFile(fs, "/notes/latin1.md", []byte("# caf\xe9"), 0o644))
	f := newFixture(t, fs)

	note, err := f.service.Resolve(context.Background(), entities.NoteRef{Folder: "root-folder", ID: "latin1"})
	require.NoError(t, err)

	assert.Equal(t, entities.OutcomeUnreadable, note.Outcome)
	assert.Contains(t, note.HTML, "<strong>Error reading file</strong>")
	assert.NotContains(t, note.HTML, "caf")

	errs := f.logs.FilterMessage("note unreadable").All()
	require.Len(t, errs, 1)
	assert.Equal(t, zapcore.ErrorLevel, errs[0].Level)
	assert.Equal(t, []entities.ResolveOutcome{entities.OutcomeUnreadable}, f.metrics.outcomes)
}

func TestResolveLogsRequestID(t *testing.T) {
	f := newFixture(t, seedFs(t))
	ctx := logger.ContextWithRequestID(context.Background(), "req-3")

	_, err := f.service.Resolve(ctx, entities.NoteRef{Folder: "root-folder", ID: "missing"})
	require.NoError(t, err)

	entries := f.logs.FilterMessage("note not found").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-3", entries[0].ContextMap()["request_id"])
}
