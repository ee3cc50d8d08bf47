// Package article extracts a title, description, and structured body text
// from an arbitrary HTML document: a readability-style pass first, falling
// back to a handful of known content-container selectors when that yields
// nothing usable.
package article

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// minReadabilityLength is the text length below which readability output is
// treated as a failure and the fallback path runs instead.
const minReadabilityLength = 50

// fallbackSelectors is tried, in order, when readability yields nothing.
var fallbackSelectors = []string{
	"article", "main", "[role=main]",
	".content", ".post-content", ".entry-content", ".article-content", ".story-content",
}

var excludedFromRawFallback = map[string]struct{}{
	"script": {}, "style": {}, "nav": {}, "header": {}, "footer": {},
}

// Result is ArticleExtractor's output: text-only, whitespace-normalized strings.
type Result struct {
	Title       string
	Description string
	Content     string
}

// Extract produces title, description, and structured body text from html,
// resolving relative references against baseURL.
func Extract(htmlBytes []byte, baseURL string) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(htmlBytes)))
	if err != nil {
		return nil, err
	}

	res := &Result{
		Title:       resolveTitle(doc),
		Description: resolveDescription(doc),
	}
	res.Content = resolveContent(htmlBytes, baseURL)
	return res, nil
}

// resolveTitle tries, in order, the og:title meta tag, twitter:title, the
// first h1, then the document title.
func resolveTitle(doc *goquery.Document) string {
	if v := metaContent(doc, "property", "og:title"); v != "" {
		return v
	}
	if v := metaContent(doc, "name", "twitter:title"); v != "" {
		return v
	}
	if v := strings.TrimSpace(doc.Find("h1").First().Text()); v != "" {
		return v
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// resolveDescription tries, in order, the og:description meta tag,
// twitter:description, the description meta tag, then the first paragraph
// whose length falls in a plausible summary range.
func resolveDescription(doc *goquery.Document) string {
	if v := metaContent(doc, "property", "og:description"); v != "" {
		return v
	}
	if v := metaContent(doc, "name", "twitter:description"); v != "" {
		return v
	}
	if v := metaContent(doc, "name", "description"); v != "" {
		return v
	}

	var candidate string
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if len(text) >= 50 && len(text) <= 300 {
			candidate = text
			return false
		}
		return true
	})
	return candidate
}

func metaContent(doc *goquery.Document, attr, value string) string {
	sel := doc.Find("meta[" + attr + "=\"" + value + "\"]").First()
	content, _ := sel.Attr("content")
	return strings.TrimSpace(content)
}

// resolveContent tries the readability path first and falls back to a
// known-container sweep when it comes back empty.
func resolveContent(htmlBytes []byte, baseURL string) string {
	if text := readabilityContent(htmlBytes, baseURL); text != "" {
		return text
	}
	return containerFallbackContent(htmlBytes)
}

// readabilityContent runs the readability-style algorithm and, if it yields
// non-empty content, converts its subtree to structured text.
func readabilityContent(htmlBytes []byte, baseURL string) string {
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(strings.NewReader(string(htmlBytes)), parsedURL)
	if err != nil {
		return ""
	}
	if len(strings.TrimSpace(article.TextContent)) < minReadabilityLength {
		return ""
	}

	node, err := html.Parse(strings.NewReader(article.Content))
	if err != nil {
		return sanitizeText(article.TextContent)
	}
	text := structuredText(node)
	if text == "" {
		return sanitizeText(article.TextContent)
	}
	return text
}

// containerFallbackContent picks the first matching container from
// fallbackSelectors (else <body>), converts it to structured text, and if
// that is empty too, falls back to its raw text with boilerplate tags removed.
func containerFallbackContent(htmlBytes []byte) string {
	doc, err := html.Parse(strings.NewReader(string(htmlBytes)))
	if err != nil {
		return ""
	}

	container := firstMatchingContainer(doc)
	if container == nil {
		return ""
	}

	if text := structuredText(container); text != "" {
		return text
	}
	return rawTextExcluding(container, excludedFromRawFallback)
}

func firstMatchingContainer(doc *html.Node) *html.Node {
	for _, selector := range fallbackSelectors {
		sel, err := cascadia.Parse(selector)
		if err != nil {
			continue
		}
		if node := cascadia.Query(doc, sel); node != nil {
			return node
		}
	}
	bodySel := cascadia.MustParse("body")
	return cascadia.Query(doc, bodySel)
}
