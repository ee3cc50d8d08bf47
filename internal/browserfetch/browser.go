// Package browserfetch implements a headless-browser fallback for content
// the plain-HTTP phase couldn't retrieve, with per-request request
// interception and anti-automation spoofing.
//
// The browser is launched fresh for every request and torn down on every
// exit path — no persistent pool is kept between requests (see DESIGN.md
// for why a page pool isn't worth the complexity here).
package browserfetch

import (
	"context"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/use-agent/scrapeservice/internal/challenge"
	"github.com/use-agent/scrapeservice/internal/models"
	"github.com/use-agent/scrapeservice/internal/urlutil"
)

// Config controls browser launch and identity spoofing.
type Config struct {
	UserAgent  string
	BrowserBin string
	NoSandbox  bool
	Timezone   string // e.g. "America/New_York"
}

// Result is a successful browser-phase fetch.
type Result struct {
	HTML     []byte
	FinalURL string
}

// FetchWithBrowser launches a fresh browser, navigates to targetURL (retrying
// against the AMP/mobile alternates on failure or challenge detection, using
// a faster wait condition on those retries), and returns the final HTML and
// URL. The browser instance is torn down before this function returns on
// every path, success or error.
func FetchWithBrowser(ctx context.Context, cfg Config, targetURL string) (res *Result, err error) {
	browser, cleanup, launchErr := launchBrowser(cfg)
	if launchErr != nil {
		return nil, models.NewScrapeError(models.KindTransport, "browser launch failed", launchErr)
	}
	defer func() {
		if r := recover(); r != nil {
			cleanup()
			panic(r)
		}
		cleanup()
	}()

	page, pageErr := stealth.Page(browser)
	if pageErr != nil {
		return nil, models.NewScrapeError(models.KindTransport, "browser page creation failed", pageErr)
	}
	page = page.Context(ctx)

	applyIdentity(page, cfg)
	router := installHijack(page)
	defer router.Stop()

	candidates := append([]string{targetURL}, urlutil.GenerateAlternates(targetURL)...)

	var lastErr error
	for i, candidate := range candidates {
		waitFast := i > 0 // primary gets the slower networkidle-style wait
		html, finalURL, navErr := navigate(ctx, page, candidate, waitFast)
		if navErr != nil {
			lastErr = navErr
			continue
		}
		if challenge.IsChallenge(html, nil, 0) {
			provider := challenge.ClassifyProvider(html, nil)
			lastErr = models.NewBlockedError(provider, urlutil.Hostname(finalURL))
			continue
		}
		return &Result{HTML: html, FinalURL: finalURL}, nil
	}

	if lastErr == nil {
		lastErr = models.NewScrapeError(models.KindTransport, "browser navigation failed", nil)
	}
	return nil, lastErr
}

func launchBrowser(cfg Config) (*rod.Browser, func(), error) {
	l := launcher.New().
		Headless(true).
		NoSandbox(cfg.NoSandbox).
		Set(flags.Flag("disable-gpu")).
		Set(flags.Flag("disable-dev-shm-usage")).
		Set(flags.Flag("disable-blink-features"), "AutomationControlled").
		Delete(flags.Flag("enable-automation")).
		Set(flags.Flag("window-size"), "1366,900")

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, nil, err
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, nil, err
	}

	cleanup := func() {
		_ = browser.Close()
		l.Cleanup()
	}
	return browser, cleanup, nil
}

func applyIdentity(page *rod.Page, cfg Config) {
	_ = proto.NetworkSetUserAgentOverride{UserAgent: cfg.UserAgent}.Call(page)
	if cfg.Timezone != "" {
		_ = proto.EmulationSetTimezoneOverride{TimezoneID: cfg.Timezone}.Call(page)
	}
	_ = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  1366,
		Height: 900,
	})
}

// navigate drives one navigation attempt. waitFast selects the lighter
// domcontentloaded-style wait used for alternate retries; the primary
// attempt uses the slower networkidle-style DOM-stability wait.
func navigate(ctx context.Context, page *rod.Page, targetURL string, waitFast bool) ([]byte, string, error) {
	navCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	p := page.Context(navCtx)

	if err := p.Navigate(targetURL); err != nil {
		return nil, "", models.NewScrapeError(models.KindTransport, "navigation failed", err)
	}

	if waitFast {
		if err := p.WaitDOMStable(150*time.Millisecond, 0.2); err != nil && navCtx.Err() != nil {
			return nil, "", models.NewTimeoutError(string(models.PhaseBrowser))
		}
	} else {
		if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil && navCtx.Err() != nil {
			return nil, "", models.NewTimeoutError(string(models.PhaseBrowser))
		}
	}

	html, err := p.HTML()
	if err != nil {
		return nil, "", models.NewScrapeError(models.KindTransport, "read HTML failed", err)
	}

	info, err := p.Info()
	finalURL := targetURL
	if err == nil && info != nil && strings.TrimSpace(info.URL) != "" {
		finalURL = info.URL
	}

	return []byte(html), finalURL, nil
}
