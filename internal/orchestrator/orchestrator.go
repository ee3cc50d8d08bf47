// Package orchestrator sequences the two acquisition phases, enforces the
// per-request deadline, and classifies terminal outcomes.
package orchestrator

import (
	"context"
	"net/url"
	"sync"
	"time"

	"lukechampine.com/blake3"

	"github.com/use-agent/scrapeservice/internal/article"
	"github.com/use-agent/scrapeservice/internal/browserfetch"
	"github.com/use-agent/scrapeservice/internal/httpfetch"
	"github.com/use-agent/scrapeservice/internal/images"
	"github.com/use-agent/scrapeservice/internal/metrics"
	"github.com/use-agent/scrapeservice/internal/models"
)

// Budgets holds the per-phase timeouts and the safety margin left for
// assembling the result once a phase's fetch succeeds.
type Budgets struct {
	HTTP          time.Duration // default 18s
	Browser       time.Duration // default 40s
	SafetyMargin  time.Duration // default 3s
}

// DefaultBudgets returns the recommended default phase budgets.
func DefaultBudgets() Budgets {
	return Budgets{HTTP: 18 * time.Second, Browser: 40 * time.Second, SafetyMargin: 3 * time.Second}
}

// Orchestrator wires HTTPFetcher, BrowserFetcher, ArticleExtractor, and
// ImageSelector into the single scrape(url, deadline) operation.
type Orchestrator struct {
	HTTP        *httpfetch.Fetcher
	Browser     browserfetch.Config
	Budgets     Budgets
}

// New builds an Orchestrator from its collaborators.
func New(http *httpfetch.Fetcher, browserCfg browserfetch.Config, budgets Budgets) *Orchestrator {
	return &Orchestrator{HTTP: http, Browser: browserCfg, Budgets: budgets}
}

// Outcome is the result of Scrape: exactly one of Extract or Blocked is set.
type Outcome struct {
	Extract *models.ExtractResult
	Blocked *models.BlockedResult
}

// Scrape implements the Orchestrator's one operation.
func (o *Orchestrator) Scrape(ctx context.Context, req models.ScrapeRequest) (*Outcome, error) {
	req.Defaults()
	start := time.Now()

	if _, err := url.ParseRequestURI(req.URL); err != nil {
		return nil, models.NewScrapeError(models.KindInvalidURL, "malformed input URL", err)
	}
	parsed, err := url.Parse(req.URL)
	if err != nil || parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, models.NewScrapeError(models.KindInvalidURL, "URL must be absolute http/https", nil)
	}

	// --- Phase A: HTTP ---
	httpBudget := clipBudget(req.Deadline, o.Budgets.HTTP, o.Budgets.SafetyMargin)
	var httpErr error
	if httpBudget > 0 {
		httpCtx, cancel := context.WithTimeout(ctx, httpBudget)
		phaseStart := time.Now()
		outcome, fetchErr := o.runHTTPPhase(httpCtx, req.URL)
		cancel()
		metrics.ObservePhaseDuration("http", time.Since(phaseStart).Seconds())
		if fetchErr == nil {
			metrics.RecordPhaseOutcome("http", "success")
			return o.assemble(outcome, req, start)
		}
		httpErr = fetchErr
		metrics.RecordPhaseOutcome("http", outcomeLabel(fetchErr))
	} else {
		httpErr = models.NewTimeoutError(string(models.PhaseHTTP))
	}

	if se, ok := models.AsScrapeError(httpErr); ok {
		if se.Code == models.KindOversizeHTML || se.Code == models.KindInvalidURL {
			return nil, httpErr
		}
	}

	// --- Phase B: Browser ---
	if qualifiesForBrowserPhase(httpErr) {
		browserBudget := clipBudget(req.Deadline, o.Budgets.Browser, o.Budgets.SafetyMargin)
		if browserBudget > 0 {
			browserCtx, cancel := context.WithTimeout(ctx, browserBudget)
			phaseStart := time.Now()
			result, browserErr := browserfetch.FetchWithBrowser(browserCtx, o.Browser, req.URL)
			cancel()
			metrics.ObservePhaseDuration("browser", time.Since(phaseStart).Seconds())
			if browserErr == nil {
				metrics.RecordPhaseOutcome("browser", "success")
				outcome := &models.FetchOutcome{HTML: result.HTML, FinalURL: result.FinalURL, Phase: models.PhaseBrowser}
				return o.assemble(outcome, req, start)
			}
			metrics.RecordPhaseOutcome("browser", outcomeLabel(browserErr))
			return o.classifyDoubleFailure(httpErr, browserErr, req.URL, req.Deadline)
		}
	}

	return nil, o.classifyTerminal(httpErr, req.URL, req.Deadline)
}

func (o *Orchestrator) runHTTPPhase(ctx context.Context, targetURL string) (*models.FetchOutcome, error) {
	result, err := o.HTTP.FetchWithAlternates(ctx, targetURL)
	if err != nil {
		return nil, err
	}
	return &models.FetchOutcome{
		HTML:       result.HTML,
		FinalURL:   result.FinalURL,
		StatusHint: result.StatusCode,
		Phase:      models.PhaseHTTP,
	}, nil
}

// qualifiesForBrowserPhase reports whether the HTTP phase's failure is one a
// headless browser might actually recover from: a 403/406/451 or any 5xx
// status, a non-HTML response, a transport-level failure, a detected
// challenge, or an alternate race in which no alternate succeeded. Anything else (a malformed URL, an oversize body) isn't worth
// the cost of a browser launch.
func qualifiesForBrowserPhase(err error) bool {
	se, ok := models.AsScrapeError(err)
	if !ok {
		return false
	}
	switch se.Code {
	case models.KindHTTPError:
		if se.Status == 403 || se.Status == 406 || se.Status == 451 {
			return true
		}
		return se.Status >= 500
	case models.KindNonHTML, models.KindTransport, models.KindBlockedByChallenge, models.KindAllAlternatesFailed:
		return true
	}
	return false
}

// classifyDoubleFailure decides the terminal outcome once both phases have
// failed: if both ran into a detected challenge, that's a confident signal
// worth reporting as a BlockedResult rather than a generic error; otherwise
// the browser phase's error (or a timeout, if the deadline has since passed)
// is what the caller actually needs to see.
func (o *Orchestrator) classifyDoubleFailure(httpErr, browserErr error, rawURL string, deadline time.Time) (*Outcome, error) {
	httpSE, httpOK := models.AsScrapeError(httpErr)
	browserSE, browserOK := models.AsScrapeError(browserErr)

	httpBlocked := httpOK && httpSE.Code == models.KindBlockedByChallenge
	if httpOK && httpSE.Code == models.KindAllAlternatesFailed {
		// A challenged primary surfaces as an exhausted alternate race that
		// wraps the race's last error.
		if inner, ok := models.AsScrapeError(httpSE.Err); ok && inner.Code == models.KindBlockedByChallenge {
			httpSE, httpBlocked = inner, true
		}
	}
	browserBlocked := browserOK && browserSE.Code == models.KindBlockedByChallenge

	if httpBlocked && browserBlocked {
		provider := browserSE.Provider
		if provider == "" {
			provider = httpSE.Provider
		}
		domain := browserSE.Domain
		if domain == "" {
			domain = httpSE.Domain
		}
		return &Outcome{Blocked: &models.BlockedResult{
			Provider: provider,
			Domain:   domain,
			Metadata: models.Metadata{URL: rawURL, ScrapedAt: time.Now()},
		}}, nil
	}

	if time.Now().After(deadline) {
		return nil, models.NewTimeoutError(string(models.PhaseBrowser))
	}

	return nil, browserErr
}

func (o *Orchestrator) classifyTerminal(httpErr error, rawURL string, deadline time.Time) error {
	if time.Now().After(deadline) {
		return models.NewTimeoutError(string(models.PhaseHTTP))
	}
	if se, ok := models.AsScrapeError(httpErr); ok && se.Code == models.KindBlockedByChallenge {
		return httpErr
	}
	return models.NewScrapeError(models.KindExtractionFailed, "no recognizable body after available phases", httpErr)
}

// assemble runs article extraction and image selection concurrently — they
// only read the fetched HTML and baseURL, so there's no reason to serialize
// them — and builds the ExtractResult.
func (o *Orchestrator) assemble(fetch *models.FetchOutcome, req models.ScrapeRequest, start time.Time) (*Outcome, error) {
	var (
		wg        sync.WaitGroup
		artResult *article.Result
		artErr    error
		imgURLs   []string
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		artResult, artErr = article.Extract(fetch.HTML, fetch.FinalURL)
	}()
	go func() {
		defer wg.Done()
		imgURLs = images.Select(fetch.HTML, fetch.FinalURL, req.ImageCount)
	}()
	wg.Wait()

	if artErr != nil {
		return nil, models.NewScrapeError(models.KindExtractionFailed, "article extraction failed", artErr)
	}

	contentHash := blake3.Sum256([]byte(artResult.Content))

	return &Outcome{
		Extract: &models.ExtractResult{
			Title:       artResult.Title,
			Description: artResult.Description,
			Content:     artResult.Content,
			Images:      imgURLs,
			Metadata: models.Metadata{
				URL:         fetch.FinalURL,
				ScrapedAt:   time.Now(),
				DurationMs:  time.Since(start).Milliseconds(),
				FetchPhase:  string(fetch.Phase),
				ContentHash: hexEncode(contentHash[:]),
			},
		},
	}, nil
}

// clipBudget returns the lesser of want and (remaining deadline - safety),
// never negative.
func clipBudget(deadline time.Time, want, safety time.Duration) time.Duration {
	if deadline.IsZero() {
		return want
	}
	remaining := time.Until(deadline) - safety
	if remaining < 0 {
		return 0
	}
	if remaining < want {
		return remaining
	}
	return want
}

func outcomeLabel(err error) string {
	if se, ok := models.AsScrapeError(err); ok {
		return se.Code
	}
	return "unknown"
}

const hexDigits = "0123456789abcdef"

func hexEncode(b []byte) string {
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexDigits[v>>4]
		out[i*2+1] = hexDigits[v&0x0f]
	}
	return string(out)
}
