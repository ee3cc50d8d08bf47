// Package models holds the request/response/error vocabulary shared by every
// component of the scrape pipeline. Entities here are created per request and
// discarded at request completion; nothing in this package is persisted.
package models

import "time"

// ScrapeRequest is the input to the Orchestrator.
type ScrapeRequest struct {
	URL        string
	Deadline   time.Time
	ImageCount int // 0 means "use the default of 3"
}

// Defaults fills in zero-valued fields with the package defaults.
func (r *ScrapeRequest) Defaults() {
	if r.ImageCount <= 0 {
		r.ImageCount = 3
	}
}

// FetchPhase identifies which acquisition phase produced a FetchOutcome.
type FetchPhase string

const (
	PhaseHTTP    FetchPhase = "http"
	PhaseBrowser FetchPhase = "browser"
)

// FetchOutcome is the successful result of either HTTPFetcher or
// BrowserFetcher: the raw document plus where it ultimately came from.
type FetchOutcome struct {
	HTML       []byte
	FinalURL   string
	StatusHint int
	Phase      FetchPhase
}

// ImageSource identifies how an ImageCandidate was discovered.
type ImageSource string

const (
	ImageSourceOG  ImageSource = "og"
	ImageSourceImg ImageSource = "img"
)

// ImageCandidate is a discovered image, mutated in place through scoring and
// filtering before the top-N are promoted into an ExtractResult.
type ImageCandidate struct {
	URL            string
	Width          int // 0 = unknown
	Height         int // 0 = unknown
	InArticleScope bool
	BadHint        bool
	Source         ImageSource
	Score          float64
	Area           int
}

// HasDimensions reports whether both width and height were resolved.
func (c *ImageCandidate) HasDimensions() bool { return c.Width > 0 && c.Height > 0 }

// Metadata accompanies every ExtractResult.
type Metadata struct {
	URL         string    `json:"url"`
	ScrapedAt   time.Time `json:"scrapedAt"`
	DurationMs  int64     `json:"durationMs"`
	FetchPhase  string    `json:"fetchPhase,omitempty"`  // added: "http" | "browser"
	ContentHash string    `json:"contentHash,omitempty"` // added: blake3 of content
}

// ExtractResult is the successful terminal outcome of a scrape.
type ExtractResult struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Content     string   `json:"content,omitempty"`
	Images      []string `json:"images"`
	Metadata    Metadata `json:"metadata"`
}

// BlockedResult is the terminal outcome when both phases land on a challenge.
type BlockedResult struct {
	Provider string   `json:"provider"`
	Domain   string   `json:"domain"`
	Metadata Metadata `json:"metadata"`
}
