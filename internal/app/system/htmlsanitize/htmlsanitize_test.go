package htmlsanitize_test

import (
	"html/template"
	"strings"
	"testing"

	"github.com/jcsgo/shepherd/internal/app/system/htmlsanitize"
)

func TestSanitize_Empty(t *testing.T) {
	if got := htmlsanitize.Sanitize(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestSanitize_PlainText(t *testing.T) {
	if got := htmlsanitize.Sanitize("Prayer meeting at 7pm"); got != "Prayer meeting at 7pm" {
		t.Errorf("expected plain text unchanged, got %q", got)
	}
}

func TestSanitize_PreservesFormatting(t *testing.T) {
	cases := []string{
		"<p><strong>Bold</strong> and <em>italic</em></p>",
		"<ul><li>Bring a friend</li><li>Bring a Bible</li></ul>",
		"<ol><li>First</li><li>Second</li></ol>",
		"<blockquote>A verse</blockquote>",
		"<h1>Heading 1</h1><h2>Heading 2</h2>",
		"<pre><code>schedule.txt</code></pre>",
	}
	for _, input := range cases {
		if got := htmlsanitize.Sanitize(input); got != input {
			t.Errorf("Sanitize(%q) = %q, want unchanged", input, got)
		}
	}
}

func TestSanitize_RemovesScript(t *testing.T) {
	got := htmlsanitize.Sanitize("<p>Hello</p><script>alert('xss')</script>")
	if got != "<p>Hello</p>" {
		t.Errorf("expected script removed, got %q", got)
	}
}

func TestSanitize_RemovesEventAttributes(t *testing.T) {
	got := htmlsanitize.Sanitize(`<img src="x" onerror="alert('xss')">`)
	if strings.Contains(got, "onerror") {
		t.Error("expected onerror attribute to be removed")
	}
}

func TestSanitize_RemovesJavascriptHref(t *testing.T) {
	input := `<a href="javascript:alert('xss')">Click</a>`
	if got := htmlsanitize.Sanitize(input); got == input {
		t.Error("expected javascript: href to be removed")
	}
}

func TestSanitize_AllowsSafeLinks(t *testing.T) {
	got := htmlsanitize.Sanitize(`<a href="https://jcsgo.com/events">Events</a>`)
	if !strings.Contains(got, "https://jcsgo.com/events") {
		t.Errorf("expected safe link preserved, got %q", got)
	}
}

func TestSanitize_AllowsTables(t *testing.T) {
	input := `<table><thead><tr><th>Service</th></tr></thead><tbody><tr><td>10AM</td></tr></tbody></table>`
	if got := htmlsanitize.Sanitize(input); got != input {
		t.Errorf("expected table preserved, got %q", got)
	}
}

func TestSanitize_AllowsTableAttributes(t *testing.T) {
	got := htmlsanitize.Sanitize(`<table class="schedule"><tr><td colspan="2">All services</td></tr></table>`)
	if !strings.Contains(got, `class="schedule"`) || !strings.Contains(got, `colspan="2"`) {
		t.Errorf("expected class and colspan preserved, got %q", got)
	}
}

func TestSanitize_RemovesIframeAndStyle(t *testing.T) {
	got := htmlsanitize.Sanitize(`<style>body{}</style><p>Content</p><iframe src="https://evil.com"></iframe>`)
	if strings.Contains(got, "iframe") || strings.Contains(got, "<style>") {
		t.Errorf("expected iframe and style removed, got %q", got)
	}
	if !strings.Contains(got, "Content") {
		t.Error("expected safe content preserved")
	}
}

func TestSanitize_RemovesFormElements(t *testing.T) {
	got := htmlsanitize.Sanitize(`<form action="/submit"><input type="text"><button>Go</button></form>`)
	if strings.Contains(got, "<form") || strings.Contains(got, "<input") {
		t.Error("expected form elements to be removed")
	}
}

func TestSanitizeToHTML(t *testing.T) {
	got := htmlsanitize.SanitizeToHTML("<p>Hello</p><script>alert('xss')</script>")
	if got != template.HTML("<p>Hello</p>") {
		t.Errorf("expected script removed, got %q", got)
	}
}

func TestStripTags(t *testing.T) {
	if got := htmlsanitize.StripTags("<p>Visited <strong>twice</strong></p>"); got != "Visited twice" {
		t.Errorf("expected all tags stripped, got %q", got)
	}
	if got := htmlsanitize.StripTags(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}
