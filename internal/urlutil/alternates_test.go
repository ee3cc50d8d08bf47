package urlutil

import (
	"net/url"
	"reflect"
	"testing"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("url.Parse(%q): %v", raw, err)
	}
	return u
}

func TestGenerateAlternates_Basic(t *testing.T) {
	got := GenerateAlternates("https://example.com/news/story")
	want := []string{
		"https://example.com/amp/news/story",
		"https://example.com/news/story/amp",
		"https://example.com/news/story?outputType=amp",
		"https://m.example.com/news/story",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GenerateAlternates() = %v, want %v", got, want)
	}
}

func TestGenerateAlternates_AlreadyAMPPrefixed(t *testing.T) {
	got := GenerateAlternates("https://example.com/amp/news/story")
	for _, alt := range got {
		if alt == "https://example.com/amp/news/story" {
			t.Errorf("alternates should not include the input URL unchanged: %v", got)
		}
	}
}

func TestGenerateAlternates_AlreadyMobileHost(t *testing.T) {
	got := GenerateAlternates("https://m.example.com/news/story")
	for _, alt := range got {
		if alt == "https://m.example.com/news/story" {
			t.Errorf("mobile alternate should be skipped when host already has m. prefix: %v", got)
		}
	}
}

func TestGenerateAlternates_Deterministic(t *testing.T) {
	first := GenerateAlternates("https://example.com/news/story")
	second := GenerateAlternates("https://example.com/news/story")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("GenerateAlternates is not deterministic: %v vs %v", first, second)
	}
}

func TestGenerateAlternates_InvalidURL(t *testing.T) {
	if got := GenerateAlternates("::not a url::"); got != nil {
		t.Errorf("expected nil for invalid URL, got %v", got)
	}
}

func TestResolveAbsolute(t *testing.T) {
	base := mustParse(t, "https://example.com/articles/one")
	got := ResolveAbsolute(base, "../images/pic.jpg")
	want := "https://example.com/images/pic.jpg"
	if got != want {
		t.Errorf("ResolveAbsolute() = %q, want %q", got, want)
	}
}
