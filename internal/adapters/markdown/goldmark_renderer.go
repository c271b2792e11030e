package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/notesweb/core/internal/domain/entities"
)

// Options selects the goldmark extensions used for notes
type Options struct {
	Autolink   bool
	Tables     bool
	UnsafeHTML bool
}

// DefaultOptions enables autolinking and tables and escapes raw HTML.
func DefaultOptions() Options {
	return Options{Autolink: true, Tables: true}
}

// GoldmarkRenderer implements ports.MarkdownRenderer. The goldmark engine is
// built once and is safe for concurrent use.
type GoldmarkRenderer struct {
	engine goldmark.Markdown
}

// NewGoldmarkRenderer creates a renderer for the given options
func NewGoldmarkRenderer(opts Options) *GoldmarkRenderer {
	return &GoldmarkRenderer{engine: newEngine(opts)}
}

func newEngine(opts Options) goldmark.Markdown {
	var exts []goldmark.Extender
	if opts.Autolink {
		exts = append(exts, extension.Linkify)
	}
	if opts.Tables {
		exts = append(exts, extension.Table)
	}

	var rendererOptions []renderer.Option
	if opts.UnsafeHTML {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	return goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithRendererOptions(rendererOptions...),
	)
}

// Render strips an optional front matter block and converts the remaining
// Markdown to HTML.
func (r *GoldmarkRenderer) Render(source []byte) (*entities.Document, error) {
	meta, body := SplitFrontMatter(source)

	var buf bytes.Buffer
	if err := r.engine.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("markdown convert: %w", err)
	}

	return &entities.Document{
		Title: meta.Title,
		HTML:  buf.String(),
	}, nil
}
