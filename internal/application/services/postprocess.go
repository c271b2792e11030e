package services

import "strings"

// Glyphs substituted for literal task markers
const (
	UncheckedBox = "☐"
	CheckedBox   = "☑"
)

var checkboxReplacer = strings.NewReplacer(
	"[ ]", UncheckedBox,
	"[x]", CheckedBox,
	"[X]", CheckedBox,
)

// ReplaceCheckboxes swaps [ ], [x] and [X] for box glyphs
func ReplaceCheckboxes(html string) string {
	return checkboxReplacer.Replace(html)
}

// StyleTables adds class to every bare <table> tag. Tags that already carry
// attributes are left alone, so applying it twice changes nothing.
func StyleTables(html, class string) string {
	if class == "" {
		return html
	}
	return strings.ReplaceAll(html, "<table>", `<table class="`+class+`">`)
}

// PostProcess applies the cosmetic substitutions to rendered Markdown
func PostProcess(html, tableClass string) string {
	return StyleTables(ReplaceCheckboxes(html), tableClass)
}
