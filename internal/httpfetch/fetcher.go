// Package httpfetch implements the lightweight HTTP acquisition phase: a
// Chrome-TLS-fingerprinted fetch with retry-on-5xx, and the alternate-URL
// race that fans out to AMP/mobile variants when the primary is blocked.
package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	tls2 "github.com/refraction-networking/utls"
	"golang.org/x/time/rate"

	"github.com/use-agent/scrapeservice/internal/challenge"
	"github.com/use-agent/scrapeservice/internal/models"
	"github.com/use-agent/scrapeservice/internal/urlutil"
)

// Fetcher retrieves documents over plain HTTP with a Chrome TLS fingerprint.
type Fetcher struct {
	UserAgent string
	Proxy     string
	MaxBytes  int64 // New substitutes 6 MiB for a value <= 0
}

// New creates a Fetcher.
func New(userAgent, proxy string, maxBytes int64) *Fetcher {
	if maxBytes <= 0 {
		maxBytes = 6 * 1024 * 1024
	}
	return &Fetcher{UserAgent: userAgent, Proxy: proxy, MaxBytes: maxBytes}
}

// Result is a successful single-URL fetch.
type Result struct {
	HTML       []byte
	FinalURL   string
	StatusCode int
	Header     http.Header
}

// Fetch retrieves targetURL, following up to 5 redirects, and retries on
// status >= 500 with exponential backoff (1s*2^n, capped at 5s, up to 2
// retries). Non-HTML content types and oversize bodies are reported as
// typed errors rather than tried again.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*Result, error) {
	client := f.newClient()
	defer client.CloseIdleConnections()

	var lastErr error
	for attempt := 0; attempt <= 2; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			if backoff > 5*time.Second {
				backoff = 5 * time.Second
			}
			select {
			case <-ctx.Done():
				return nil, models.NewTimeoutError(string(models.PhaseHTTP))
			case <-time.After(backoff):
			}
		}

		result, retryable, err := f.attempt(ctx, client, targetURL)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, lastErr
}

// attempt performs a single request. The bool return reports whether the
// caller should retry (true only for status >= 500).
func (f *Fetcher) attempt(ctx context.Context, client *http.Client, targetURL string) (*Result, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, false, models.NewScrapeError(models.KindInvalidURL, "malformed request URL", err)
	}
	f.setHeaders(req)

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, models.NewTimeoutError(string(models.PhaseHTTP))
		}
		return nil, false, models.NewScrapeError(models.KindTransport, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, true, models.NewHTTPError(resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, false, models.NewHTTPError(resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if !isHTMLContentType(ct) {
		return nil, false, models.NewScrapeError(models.KindNonHTML, ct, nil)
	}

	limited := io.LimitReader(resp.Body, f.MaxBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, false, models.NewScrapeError(models.KindTransport, "read body", err)
	}
	if int64(len(body)) > f.MaxBytes {
		return nil, false, models.NewScrapeError(models.KindOversizeHTML, "body exceeds size cap", nil)
	}

	finalURL := targetURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Result{
		HTML:       body,
		FinalURL:   finalURL,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
	}, false, nil
}

func (f *Fetcher) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Referer", "https://www.google.com/")
}

func (f *Fetcher) newClient() *http.Client {
	proxy := f.Proxy
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialTLSChrome(ctx, network, addr, proxy)
		},
	}
	if proxy != "" {
		if proxyURL, err := url.Parse(proxy); err == nil && (proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	return &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("httpfetch: stopped after 5 redirects")
			}
			return nil
		},
	}
}

// dialTLSChrome establishes a TLS connection shaped like Chrome's
// ClientHello, via utls, so the HTTP phase isn't trivially fingerprinted.
func dialTLSChrome(ctx context.Context, network, addr, proxy string) (net.Conn, error) {
	var rawConn net.Conn
	var err error
	dialer := &net.Dialer{}

	if proxy != "" {
		if proxyURL, parseErr := url.Parse(proxy); parseErr == nil &&
			(proxyURL.Scheme == "socks5" || proxyURL.Scheme == "socks5h") {
			socksConn, socksErr := dialer.DialContext(ctx, "tcp", proxyURL.Host)
			if socksErr != nil {
				return nil, fmt.Errorf("socks5 dial: %w", socksErr)
			}
			rawConn = socksConn
		}
	}

	if rawConn == nil {
		rawConn, err = dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls2.UClient(rawConn, &tls2.Config{
		ServerName: host,
	}, tls2.HelloChrome_Auto)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}

func isHTMLContentType(ct string) bool {
	if ct == "" {
		// Some origins omit Content-Type on otherwise valid HTML; be lenient
		// rather than rejecting, consistent with how the challenge detector
		// still inspects the body regardless of header presence.
		return true
	}
	for _, want := range []string{"text/html", "application/xhtml+xml"} {
		if len(ct) >= len(want) && ct[:len(want)] == want {
			return true
		}
	}
	return false
}

// qualifiesForAlternateRace reports whether a primary-fetch failure is worth
// trying the AMP/mobile alternates for instead of giving up on this phase.
func qualifiesForAlternateRace(err error) bool {
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
	case models.KindBlockedByChallenge:
		return true
	}
	return false
}

// FetchWithAlternates attempts the primary URL; on qualifying failure it
// races the alternates generated by urlutil.GenerateAlternates and returns
// the first non-challenged winner, cancelling the rest.
func (f *Fetcher) FetchWithAlternates(ctx context.Context, primaryURL string) (*Result, error) {
	primary, err := f.Fetch(ctx, primaryURL)
	if err == nil {
		if challenge.IsChallenge(primary.HTML, primary.Header, primary.StatusCode) {
			provider := challenge.ClassifyProvider(primary.HTML, primary.Header)
			err = models.NewBlockedError(provider, urlutil.Hostname(primaryURL))
		} else {
			return primary, nil
		}
	}

	if !qualifiesForAlternateRace(err) {
		return nil, err
	}

	alternates := urlutil.GenerateAlternates(primaryURL)
	if len(alternates) == 0 {
		return nil, err
	}

	return f.raceAlternates(ctx, alternates, err)
}

type raceOutcome struct {
	result *Result
	err    error
}

// raceAlternates runs one fetch per alternate concurrently; the first
// non-challenged success wins and cancels the rest, via a result channel with
// one buffered slot per alternate and context cancellation of the losers.
func (f *Fetcher) raceAlternates(ctx context.Context, alternates []string, primaryErr error) (*Result, error) {
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(len(alternates)), len(alternates))

	results := make(chan raceOutcome, len(alternates))
	var wg sync.WaitGroup
	for _, alt := range alternates {
		wg.Add(1)
		go func(candidate string) {
			defer wg.Done()
			if err := limiter.Wait(raceCtx); err != nil {
				results <- raceOutcome{err: err}
				return
			}
			res, err := f.Fetch(raceCtx, candidate)
			if err != nil {
				results <- raceOutcome{err: err}
				return
			}
			if challenge.IsChallenge(res.HTML, res.Header, res.StatusCode) {
				provider := challenge.ClassifyProvider(res.HTML, res.Header)
				results <- raceOutcome{err: models.NewBlockedError(provider, urlutil.Hostname(candidate))}
				return
			}
			results <- raceOutcome{result: res}
		}(alt)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var lastErr = primaryErr
	for outcome := range results {
		if outcome.err != nil {
			lastErr = outcome.err
			continue
		}
		cancel()
		return outcome.result, nil
	}

	return nil, models.NewScrapeError(models.KindAllAlternatesFailed, "no alternate yielded a non-challenged page", lastErr)
}
