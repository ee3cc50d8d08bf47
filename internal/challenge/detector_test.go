package challenge

import (
	"net/http"
	"testing"
)

func TestIsChallenge_BodyMarker(t *testing.T) {
	body := []byte(`<html><head><title>Hello</title></head><body>Why have I been blocked?</body></html>`)
	if !IsChallenge(body, nil, 200) {
		t.Error("expected body marker to be detected even at status 200")
	}
}

func TestIsChallenge_TitleMarker(t *testing.T) {
	body := []byte(`<html><head><title>Just a moment...</title></head><body>checking your browser</body></html>`)
	if !IsChallenge(body, nil, 503) {
		t.Error("expected title marker to be detected")
	}
}

func TestIsChallenge_HeaderAndStatus(t *testing.T) {
	body := []byte(`<html><body>ordinary page</body></html>`)
	header := http.Header{}
	header.Set("Server", "cloudflare")
	if !IsChallenge(body, header, 403) {
		t.Error("expected cloudflare server header + 403 to be detected")
	}
	if IsChallenge(body, header, 200) {
		t.Error("cloudflare header alone at status 200 with no body/title marker should not be a challenge")
	}
}

func TestIsChallenge_NormalPage(t *testing.T) {
	body := []byte(`<html><head><title>Hello World</title></head><body><p>Just a normal article.</p></body></html>`)
	if IsChallenge(body, nil, 200) {
		t.Error("ordinary page misclassified as challenge")
	}
}

func TestIsChallenge_CaseInsensitive(t *testing.T) {
	body := []byte(`<html><body>CLOUDFLARE RAY ID: abc123</body></html>`)
	if !IsChallenge(body, nil, 200) {
		t.Error("expected case-insensitive match on body marker")
	}
}

func TestClassifyProvider(t *testing.T) {
	body := []byte(`<html><body>Attention Required! | Cloudflare</body></html>`)
	if got := ClassifyProvider(body, nil); got != "cloudflare" {
		t.Errorf("ClassifyProvider() = %q, want %q", got, "cloudflare")
	}
}

func TestClassifyProvider_Unknown(t *testing.T) {
	body := []byte(`<html><body>ordinary page</body></html>`)
	if got := ClassifyProvider(body, nil); got != "" {
		t.Errorf("ClassifyProvider() = %q, want empty", got)
	}
}
