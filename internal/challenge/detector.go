// Package challenge classifies a fetched document as a normal page or an
// anti-bot challenge page (Cloudflare, Turnstile, and similar middleboxes).
package challenge

import (
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

// bodyMarkers are matched against the lowercased HTML body. Conjunction with
// other signals is not required — any single body marker is sufficient.
var bodyMarkers = []string{
	"attention required",
	"cloudflare ray id",
	"what can i do to resolve this?",
	"why have i been blocked?",
	"performance & security by cloudflare",
	"cf-browser-verification",
	"turnstile",
	"challenge-platform",
}

// titleMarkers are matched against the lowercased <title> text.
var titleMarkers = []string{
	"just a moment",
	"attention required",
	"please wait",
}

// challengeStatuses is the set of HTTP statuses that, combined with a
// Cloudflare-flavored header, confirm a challenge even without a body marker.
var challengeStatuses = map[int]struct{}{
	403: {},
	409: {},
	503: {},
}

// IsChallenge reports whether html looks like an anti-bot challenge page.
// header and status are optional (pass nil/0 when unavailable); they only
// strengthen detection, they never suppress a body/title marker hit.
func IsChallenge(body []byte, header http.Header, status int) bool {
	lower := strings.ToLower(string(body))

	for _, marker := range bodyMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	title := strings.ToLower(extractTitle(body))
	for _, marker := range titleMarkers {
		if strings.Contains(title, marker) {
			return true
		}
	}

	if header != nil {
		server := strings.ToLower(header.Get("Server"))
		_, cfRay := header["Cf-Ray"]
		if _, statusMatches := challengeStatuses[status]; statusMatches {
			if strings.Contains(server, "cloudflare") || cfRay {
				return true
			}
		}
	}

	return false
}

// ClassifyProvider returns a short provider tag for a detected challenge, or
// "" if no known provider's markers matched.
func ClassifyProvider(body []byte, header http.Header) string {
	lower := strings.ToLower(string(body))
	for _, marker := range bodyMarkers {
		if strings.Contains(lower, marker) {
			return "cloudflare"
		}
	}
	if header != nil {
		server := strings.ToLower(header.Get("Server"))
		_, cfRay := header["Cf-Ray"]
		if strings.Contains(server, "cloudflare") || cfRay {
			return "cloudflare"
		}
	}
	title := strings.ToLower(extractTitle(body))
	for _, marker := range titleMarkers {
		if strings.Contains(title, marker) {
			return "cloudflare"
		}
	}
	return ""
}

// extractTitle extracts the <title> content from raw HTML bytes using a
// streaming tokenizer, so it doesn't need a full DOM parse just to check
// one element.
func extractTitle(body []byte) string {
	tokenizer := html.NewTokenizer(strings.NewReader(string(body)))
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "title" {
				if tokenizer.Next() == html.TextToken {
					return strings.TrimSpace(string(tokenizer.Text()))
				}
				return ""
			}
		}
	}
}
