// Package htmlsanitize cleans user-generated HTML before storage or display.
// Announcement content and rich notes pass through here; everything else is
// stored as plain text.
package htmlsanitize

import (
	"html/template"

	"github.com/microcosm-cc/bluemonday"
)

var policy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	// Tables (with the class hook the UI uses) beyond the UGC default.
	p.AllowAttrs("class").OnElements("table", "thead", "tbody", "tr", "th", "td")
	p.AllowAttrs("colspan", "rowspan").OnElements("th", "td")
	return p
}

// Sanitize returns s with unsafe HTML removed. Safe formatting (paragraphs,
// emphasis, lists, tables, code, links with http/https hrefs) is preserved.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}

// SanitizeToHTML sanitizes and marks the result safe for template rendering.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// StripTags removes all HTML, returning plain text. Used for fields that are
// text-only (follow-up notes, skills, meeting schedules).
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return bluemonday.StrictPolicy().Sanitize(s)
}
