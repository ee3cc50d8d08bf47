package article

import (
	"strings"
	"testing"
)

func TestExtract_HappyPath(t *testing.T) {
	doc := `<html><head><title>Hello</title>
<meta property="og:description" content="desc"/>
</head><body><p>Body paragraph one.</p></body></html>`

	res, err := Extract([]byte(doc), "https://example.com/article")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.Title != "Hello" {
		t.Errorf("Title = %q, want %q", res.Title, "Hello")
	}
	if res.Description != "desc" {
		t.Errorf("Description = %q, want %q", res.Description, "desc")
	}
	if res.Content != "Body paragraph one." {
		t.Errorf("Content = %q, want %q", res.Content, "Body paragraph one.")
	}
}

func TestExtract_TitleResolutionOrder(t *testing.T) {
	doc := `<html><head><title>Fallback Title</title>
<meta property="og:title" content="OG Title"/>
</head><body><h1>H1 Title</h1></body></html>`
	res, err := Extract([]byte(doc), "https://example.com/x")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.Title != "OG Title" {
		t.Errorf("Title = %q, want %q (og:title should win)", res.Title, "OG Title")
	}
}

func TestExtract_ContentHasNoMarkup(t *testing.T) {
	doc := `<html><body><article><h2>Section</h2><p>Some <b>bold</b> text here that is long enough to count as an article body for readability purposes, repeated to pad length.</p><p>Second paragraph continues the thought with more filler content to exceed the minimum threshold for extraction.</p></article></body></html>`
	res, err := Extract([]byte(doc), "https://example.com/article")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if strings.ContainsAny(res.Content, "<>") {
		t.Errorf("Content contains markup: %q", res.Content)
	}
	if strings.Contains(res.Content, "  ") {
		t.Errorf("Content contains run of >=2 spaces: %q", res.Content)
	}
	if strings.Contains(res.Content, "\n\n\n") {
		t.Errorf("Content contains run of >=3 newlines: %q", res.Content)
	}
}

func TestSanitizeText_CollapsesWhitespace(t *testing.T) {
	in := "Hello    world\n\n\n\nbye"
	got := sanitizeText(in)
	if strings.Contains(got, "  ") {
		t.Errorf("sanitizeText did not collapse spaces: %q", got)
	}
	if strings.Contains(got, "\n\n\n") {
		t.Errorf("sanitizeText did not collapse newlines: %q", got)
	}
}
