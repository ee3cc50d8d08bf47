package article

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var skipTags = map[string]struct{}{
	"script": {}, "style": {}, "noscript": {},
}

var blockTags = map[string]struct{}{
	"p": {}, "li": {}, "blockquote": {},
}

var headingTags = map[string]struct{}{
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
}

// structuredText walks n and its descendants, producing text that keeps
// just enough of the original paragraph/heading structure to stay readable:
// headings get a blank line before them, block tags get a newline before
// them, everything else contributes inline.
func structuredText(n *html.Node) string {
	var buf strings.Builder
	walkStructured(n, &buf)
	return sanitizeText(buf.String())
}

func walkStructured(n *html.Node, buf *strings.Builder) {
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
		return
	}
	if n.Type == html.ElementNode {
		if _, skip := skipTags[n.Data]; skip {
			return
		}
		if _, isHeading := headingTags[n.Data]; isHeading {
			text := strings.TrimSpace(innerText(n))
			if text == "" {
				return
			}
			if buf.Len() > 0 {
				buf.WriteString("\n\n")
			}
			buf.WriteString(text)
			buf.WriteString("\n")
			return
		}
		if _, isBlock := blockTags[n.Data]; isBlock {
			text := strings.TrimSpace(innerText(n))
			if text == "" {
				return
			}
			if buf.Len() > 0 {
				buf.WriteString("\n")
			}
			buf.WriteString(text)
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkStructured(c, buf)
	}
}

// innerText concatenates the text descendants of n in document order, with no
// separator added between them, skipping script/style/noscript subtrees.
func innerText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode {
			if _, skip := skipTags[n.Data]; skip {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}

var reRuns3Newlines = regexp.MustCompile(`\n{3,}`)

// sanitizeText strips any remaining markup, collapses runs of >=3 newlines
// to 2 and runs of >=2 spaces to 1, and trims.
func sanitizeText(s string) string {
	s = stripTags(s)
	s = reRuns3Newlines.ReplaceAllString(s, "\n\n")
	s = collapseSpaces(s)
	return strings.TrimSpace(s)
}

var reTag = regexp.MustCompile(`<[^>]*>`)

func stripTags(s string) string {
	return reTag.ReplaceAllString(s, "")
}

func collapseSpaces(s string) string {
	var buf strings.Builder
	runCount := 0
	for _, r := range s {
		if r == ' ' {
			runCount++
			if runCount > 1 {
				continue
			}
		} else {
			runCount = 0
		}
		buf.WriteRune(r)
	}
	return buf.String()
}

// rawTextExcluding returns n's flattened text with script/style/nav/header/
// footer subtrees removed — the last-resort fallback when the structured
// pass yields nothing.
func rawTextExcluding(n *html.Node, excluded map[string]struct{}) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteByte(' ')
			return
		}
		if n.Type == html.ElementNode {
			if _, skip := excluded[n.Data]; skip {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sanitizeText(buf.String())
}
