package orchestrator

import (
	"testing"
	"time"

	"github.com/use-agent/scrapeservice/internal/models"
)

func TestClipBudget_ClipsToRemainingMinusSafety(t *testing.T) {
	deadline := time.Now().Add(1 * time.Second)
	got := clipBudget(deadline, 18*time.Second, 3*time.Second)
	if got > 0 {
		t.Errorf("clipBudget() = %v, want <= 0 (1s remaining - 3s safety)", got)
	}
}

func TestClipBudget_UsesWantWhenPlentyOfTime(t *testing.T) {
	deadline := time.Now().Add(1 * time.Minute)
	got := clipBudget(deadline, 18*time.Second, 3*time.Second)
	if got != 18*time.Second {
		t.Errorf("clipBudget() = %v, want 18s", got)
	}
}

func TestClipBudget_ZeroDeadlineMeansNoClip(t *testing.T) {
	got := clipBudget(time.Time{}, 18*time.Second, 3*time.Second)
	if got != 18*time.Second {
		t.Errorf("clipBudget() = %v, want 18s", got)
	}
}

func TestQualifiesForBrowserPhase(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"403", models.NewHTTPError(403), true},
		{"404", models.NewHTTPError(404), false},
		{"503", models.NewHTTPError(503), true},
		{"nonhtml", models.NewScrapeError(models.KindNonHTML, "image/png", nil), true},
		{"transport", models.NewScrapeError(models.KindTransport, "reset", nil), true},
		{"challenge", models.NewBlockedError("cloudflare", "x.com"), true},
		{"oversize", models.NewScrapeError(models.KindOversizeHTML, "too big", nil), false},
		{"invalid", models.NewScrapeError(models.KindInvalidURL, "bad", nil), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := qualifiesForBrowserPhase(tc.err); got != tc.want {
				t.Errorf("qualifiesForBrowserPhase(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestClassifyDoubleFailure_BothChallenged(t *testing.T) {
	o := &Orchestrator{}
	httpErr := models.NewBlockedError("cloudflare", "news.example.com")
	browserErr := models.NewBlockedError("cloudflare", "news.example.com")

	outcome, err := o.classifyDoubleFailure(httpErr, browserErr, "https://news.example.com/a", time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("classifyDoubleFailure() error = %v", err)
	}
	if outcome.Blocked == nil {
		t.Fatal("expected a BlockedResult")
	}
	if outcome.Blocked.Provider != "cloudflare" {
		t.Errorf("Provider = %q, want %q", outcome.Blocked.Provider, "cloudflare")
	}
}

func TestClassifyDoubleFailure_OnlyOneChallenged(t *testing.T) {
	o := &Orchestrator{}
	httpErr := models.NewBlockedError("cloudflare", "news.example.com")
	browserErr := models.NewScrapeError(models.KindTransport, "reset", nil)

	outcome, err := o.classifyDoubleFailure(httpErr, browserErr, "https://news.example.com/a", time.Now().Add(time.Minute))
	if outcome != nil {
		t.Fatalf("expected no Outcome, got %v", outcome)
	}
	if err != browserErr {
		t.Errorf("expected the browser error to surface, got %v", err)
	}
}

func TestHexEncode(t *testing.T) {
	got := hexEncode([]byte{0x00, 0xff, 0x1a})
	want := "00ff1a"
	if got != want {
		t.Errorf("hexEncode() = %q, want %q", got, want)
	}
}
