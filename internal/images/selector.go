// Package images discovers candidate article images from Open-Graph
// metadata and an <img> sweep, resolves srcset variants, backfills missing
// dimensions, scores each candidate by relevance, and filters the result
// down to the top-N representative images.
package images

import (
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/scrapeservice/internal/models"
	"github.com/use-agent/scrapeservice/internal/urlutil"
)

const (
	minDimension = 300
	minArea      = 140000
	aspectLow    = 0.5
	aspectHigh   = 2.6
	aspectTol    = 0.09
)

var whitelistedAspects = []float64{1.333, 1.5, 1.6, 1.667, 1.777, 1.85, 2}

var adSizes = map[[2]int]struct{}{
	{728, 90}: {}, {970, 90}: {}, {970, 250}: {}, {468, 60}: {},
	{320, 50}: {}, {300, 50}: {}, {300, 250}: {}, {336, 280}: {},
	{300, 600}: {}, {160, 600}: {}, {120, 600}: {}, {250, 250}: {},
	{200, 200}: {}, {180, 150}: {}, {234, 60}: {}, {120, 240}: {}, {88, 31}: {},
}

var allowedExtensions = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp|avif)([?#].*)?$`)

var badHintPattern = regexp.MustCompile(`(?i)(sprite|icon|favicon|logo|avatar|emoji|placeholder|pixel|tracker|ads?|adserver|promo|beacon)`)

// Select returns up to n absolute image URLs, in descending priority.
func Select(htmlBytes []byte, baseURL string, n int) []string {
	if n <= 0 {
		n = 3
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(htmlBytes)))
	if err != nil {
		return nil
	}

	candidates := discover(doc, base)
	candidates = filterCandidates(candidates)
	score(candidates)

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Area > candidates[j].Area
	})

	seen := make(map[string]struct{})
	var out []string
	for _, c := range candidates {
		if _, ok := seen[c.URL]; ok {
			continue
		}
		seen[c.URL] = struct{}{}
		out = append(out, c.URL)
		if len(out) >= n {
			break
		}
	}
	return out
}

func discover(doc *goquery.Document, base *url.URL) []*models.ImageCandidate {
	var candidates []*models.ImageCandidate

	if c := discoverOGImage(doc, base); c != nil {
		candidates = append(candidates, c)
	}

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if c := discoverImgTag(s, base); c != nil {
			candidates = append(candidates, c)
		}
	})

	return candidates
}

func discoverOGImage(doc *goquery.Document, base *url.URL) *models.ImageCandidate {
	raw, _ := doc.Find(`meta[property="og:image"]`).First().Attr("content")
	if raw == "" {
		raw, _ = doc.Find(`meta[property="og:image:secure_url"]`).First().Attr("content")
	}
	if raw == "" {
		return nil
	}
	abs := urlutil.ResolveAbsolute(base, raw)
	if abs == "" || !allowedExtensions.MatchString(abs) {
		return nil
	}

	width, _ := strconv.Atoi(metaAttr(doc, "og:image:width"))
	height, _ := strconv.Atoi(metaAttr(doc, "og:image:height"))
	if width == 0 || height == 0 {
		width, height = backfillDimensions(abs)
	}

	return &models.ImageCandidate{
		URL:            abs,
		Width:          width,
		Height:         height,
		InArticleScope: true,
		Source:         models.ImageSourceOG,
		Area:           width * height,
	}
}

func metaAttr(doc *goquery.Document, property string) string {
	v, _ := doc.Find(`meta[property="` + property + `"]`).First().Attr("content")
	return v
}

var urlCandidateAttrs = []string{"src", "data-src", "data-original", "data-lazy-src"}

func discoverImgTag(s *goquery.Selection, base *url.URL) *models.ImageCandidate {
	var raw string
	for _, attr := range urlCandidateAttrs {
		if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
			raw = v
			break
		}
	}
	if raw == "" {
		if srcset, ok := s.Attr("srcset"); ok && srcset != "" {
			raw = bestSrcsetEntry(parseSrcset(srcset))
		}
	}
	if raw == "" {
		return nil
	}

	abs := urlutil.ResolveAbsolute(base, raw)
	if abs == "" || !allowedExtensions.MatchString(abs) {
		return nil
	}

	width := attrInt(s, "width")
	height := attrInt(s, "height")
	if width == 0 || height == 0 {
		if sw, sh := styleDimensions(s); sw > 0 && sh > 0 {
			width, height = sw, sh
		}
	}
	if width == 0 || height == 0 {
		width, height = backfillDimensions(abs)
	}

	outer, _ := goquery.OuterHtml(s)
	badHint := badHintPattern.MatchString(outer) || badHintPattern.MatchString(abs)

	return &models.ImageCandidate{
		URL:            abs,
		Width:          width,
		Height:         height,
		InArticleScope: inArticleScope(s),
		BadHint:        badHint,
		Source:         models.ImageSourceImg,
		Area:           width * height,
	}
}

func attrInt(s *goquery.Selection, attr string) int {
	v, ok := s.Attr(attr)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}

var reStyleDim = regexp.MustCompile(`(?i)(width|height)\s*:\s*(\d+)px`)

func styleDimensions(s *goquery.Selection) (width, height int) {
	style, ok := s.Attr("style")
	if !ok {
		return 0, 0
	}
	for _, m := range reStyleDim.FindAllStringSubmatch(style, -1) {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		if strings.EqualFold(m[1], "width") {
			width = n
		} else {
			height = n
		}
	}
	return width, height
}

// inArticleScope reports whether s has an <article> or <main> ancestor.
func inArticleScope(s *goquery.Selection) bool {
	found := false
	s.ParentsFiltered("article, main").Each(func(_ int, _ *goquery.Selection) {
		found = true
	})
	return found
}

func filterCandidates(candidates []*models.ImageCandidate) []*models.ImageCandidate {
	var out []*models.ImageCandidate
	for _, c := range candidates {
		if passesFilter(c) {
			out = append(out, c)
		}
	}
	return out
}

func passesFilter(c *models.ImageCandidate) bool {
	if !c.HasDimensions() {
		return !c.BadHint
	}

	if minInt(c.Width, c.Height) < minDimension {
		return false
	}
	if c.Width*c.Height < minArea {
		return false
	}

	aspect := float64(c.Width) / float64(c.Height)
	if (aspect < aspectLow || aspect > aspectHigh) && !withinWhitelistedAspect(aspect) {
		return false
	}

	if _, isAdSize := adSizes[[2]int{c.Width, c.Height}]; isAdSize {
		return false
	}

	if c.BadHint {
		if minInt(c.Width, c.Height) < 400 || c.Width*c.Height < 300000 {
			return false
		}
	}

	return true
}

func withinWhitelistedAspect(aspect float64) bool {
	for _, w := range whitelistedAspects {
		if math.Abs(aspect-w) <= aspectTol {
			return true
		}
	}
	return false
}

func score(candidates []*models.ImageCandidate) {
	for _, c := range candidates {
		var s float64
		if c.InArticleScope {
			s += 2
		}
		if c.Source == models.ImageSourceOG {
			s += 1
		}
		if c.HasDimensions() {
			aspect := float64(c.Width) / float64(c.Height)
			if withinWhitelistedAspect(aspect) {
				s += 1
			}
		}
		area := c.Area
		if area < 1 {
			area = 1
		}
		s += math.Log10(float64(area))
		c.Score = s
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
