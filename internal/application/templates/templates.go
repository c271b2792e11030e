// Package templates wraps HTML fragments in the shared page chrome. All
// templates are parsed once; rendering depends only on the Config given to New
// and the arguments of each call.
package templates

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/notesweb/core/internal/domain/entities"
)

// Config holds the page chrome
type Config struct {
	Title           string
	HomeURL         string
	LocalStylesheet string
	Stylesheets     []string
	Scripts         []string
	InlineScript    string
	Footer          string
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
{{- range .Stylesheets}}
  <link rel="stylesheet" href="{{.}}">
{{- end}}
{{- with .LocalStylesheet}}
  <link rel="stylesheet" href="{{.}}">
{{- end}}
{{- range .Scripts}}
  <script src="{{.}}"></script>
{{- end}}
{{- with .InlineScript}}
  <script>{{.}}</script>
{{- end}}
</head>
<body>
  <div class="pure-g">
    <div class="pure-menu pure-menu-horizontal">
      <a href="{{.HomeURL}}" class="pure-menu-heading pure-menu-link">Home</a>
    </div>
    <div class="container pure-u-2-3">
{{.Content}}
    </div>
  </div>
  <footer>{{.Footer}}</footer>
</body>
</html>
`

const indexTemplate = `<h1>Index</h1>
<ul>
{{- range .}}
<li><a href="{{.Href}}">{{.Label}}</a></li>
{{- end}}
</ul>
`

const errorTemplate = `<h1>Error</h1>
<p><strong>{{.Message}}</strong></p>
<p>{{.Code}} {{.Status}}</p>
`

// Templater renders full pages, the index fragment and error fragments
type Templater struct {
	cfg       Config
	page      *template.Template
	index     *template.Template
	errorPage *template.Template
}

type pageData struct {
	Title           string
	HomeURL         string
	LocalStylesheet string
	Stylesheets     []string
	Scripts         []string
	InlineScript    template.JS
	Footer          string
	Content         template.HTML
}

// New parses the templates
func New(cfg Config) (*Templater, error) {
	page, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}
	index, err := template.New("index").Parse(indexTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse index template: %w", err)
	}
	errorPage, err := template.New("error").Parse(errorTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse error template: %w", err)
	}

	if cfg.HomeURL == "" {
		cfg.HomeURL = "/"
	}

	return &Templater{
		cfg:       cfg,
		page:      page,
		index:     index,
		errorPage: errorPage,
	}, nil
}

// Page wraps trusted HTML content in the page chrome. An empty title falls
// back to the configured site title.
func (t *Templater) Page(title string, content template.HTML) (string, error) {
	switch {
	case title == "":
		title = t.cfg.Title
	case t.cfg.Title != "" && title != t.cfg.Title:
		title = title + " - " + t.cfg.Title
	}

	data := pageData{
		Title:           title,
		HomeURL:         t.cfg.HomeURL,
		LocalStylesheet: t.cfg.LocalStylesheet,
		Stylesheets:     t.cfg.Stylesheets,
		Scripts:         t.cfg.Scripts,
		InlineScript:    template.JS(t.cfg.InlineScript),
		Footer:          t.cfg.Footer,
		Content:         content,
	}
	return execute(t.page, data)
}

// Index renders the list of note links
func (t *Templater) Index(links []entities.Link) (template.HTML, error) {
	out, err := execute(t.index, links)
	return template.HTML(out), err
}

// Error renders the fragment shown for HTTP errors
func (t *Templater) Error(code int, message string) (template.HTML, error) {
	out, err := execute(t.errorPage, struct {
		Code    int
		Status  string
		Message string
	}{code, http.StatusText(code), message})
	return template.HTML(out), err
}

func execute(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute %s template: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
