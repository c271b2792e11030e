package markdown

import (
	"bytes"

	"github.com/adrg/frontmatter"
)

// FrontMatter holds the note metadata we care about
type FrontMatter struct {
	Title string   `yaml:"title" toml:"title" json:"title"`
	Tags  []string `yaml:"tags" toml:"tags" json:"tags"`
}

// SplitFrontMatter separates a leading YAML, TOML or JSON block from the body.
// Sources without front matter, or with a block that fails to parse, are
// returned untouched.
func SplitFrontMatter(source []byte) (FrontMatter, []byte) {
	var meta FrontMatter

	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return FrontMatter{}, source
	}

	return meta, body
}
