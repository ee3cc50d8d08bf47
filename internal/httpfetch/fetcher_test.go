package httpfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/use-agent/scrapeservice/internal/models"
)

func TestIsHTMLContentType(t *testing.T) {
	cases := map[string]bool{
		"text/html; charset=utf-8":    true,
		"application/xhtml+xml":       true,
		"application/json":            false,
		"image/png":                   false,
		"":                            true,
	}
	for ct, want := range cases {
		if got := isHTMLContentType(ct); got != want {
			t.Errorf("isHTMLContentType(%q) = %v, want %v", ct, got, want)
		}
	}
}

func TestQualifiesForAlternateRace(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"403", models.NewHTTPError(403), true},
		{"406", models.NewHTTPError(406), true},
		{"451", models.NewHTTPError(451), true},
		{"500", models.NewHTTPError(500), true},
		{"404", models.NewHTTPError(404), false},
		{"challenge", models.NewBlockedError("cloudflare", "example.com"), true},
		{"nonhtml", models.NewScrapeError(models.KindNonHTML, "image/png", nil), false},
		{"oversize", models.NewScrapeError(models.KindOversizeHTML, "too big", nil), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := qualifiesForAlternateRace(tc.err); got != tc.want {
				t.Errorf("qualifiesForAlternateRace(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestFetch_RetriesOnServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer server.Close()

	f := New("test-agent", "", 0)
	result, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("expected 2 requests (1 failure + 1 retry), got %d", calls)
	}
	if !strings.Contains(string(result.HTML), "ok") {
		t.Errorf("unexpected body: %s", result.HTML)
	}
}

func TestFetch_GivesUpAfterTwoRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := New("test-agent", "", 0)
	_, err := f.Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	se, ok := models.AsScrapeError(err)
	if !ok || se.Code != models.KindHTTPError {
		t.Errorf("expected KindHTTPError, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("expected 3 total attempts (1 initial + 2 retries), got %d", calls)
	}
}

func TestFetch_RejectsOversizeBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(strings.Repeat("a", 64)))
	}))
	defer server.Close()

	f := New("test-agent", "", 16)
	_, err := f.Fetch(context.Background(), server.URL)
	se, ok := models.AsScrapeError(err)
	if !ok || se.Code != models.KindOversizeHTML {
		t.Fatalf("expected KindOversizeHTML, got %v", err)
	}
}

func TestFetch_StopsAfterRedirectCap(t *testing.T) {
	var mux http.ServeMux
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	server := httptest.NewServer(&mux)
	defer server.Close()

	f := New("test-agent", "", 0)
	_, err := f.Fetch(context.Background(), server.URL+"/loop")
	if err == nil {
		t.Fatal("expected an error from the redirect loop")
	}
	se, ok := models.AsScrapeError(err)
	if !ok || se.Code != models.KindTransport {
		t.Errorf("expected KindTransport from a stopped redirect chain, got %v", err)
	}
}

// TestFetchWithAlternates_RaceWinnerCancelsLosers checks that once one
// alternate returns a usable page, the race returns immediately rather than
// waiting on a slower competitor, and that the slower competitor's request
// is in fact cancelled rather than left to run to completion.
func TestFetchWithAlternates_RaceWinnerCancelsLosers(t *testing.T) {
	var loserCancelled int32
	var mux http.ServeMux

	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("outputType") == "amp" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("/article/amp", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>winner</body></html>"))
	})
	mux.HandleFunc("/amp/article", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			atomic.StoreInt32(&loserCancelled, 1)
		case <-time.After(3 * time.Second):
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html><body>slow loser</body></html>"))
		}
	})

	server := httptest.NewServer(&mux)
	defer server.Close()

	f := New("test-agent", "", 0)
	start := time.Now()
	result, err := f.FetchWithAlternates(context.Background(), server.URL+"/article")
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("FetchWithAlternates returned error: %v", err)
	}
	if !strings.Contains(string(result.HTML), "winner") {
		t.Errorf("expected the fast alternate's body, got %s", result.HTML)
	}
	if elapsed > 1*time.Second {
		t.Errorf("race took %v, expected it to return as soon as the fast alternate won", elapsed)
	}

	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&loserCancelled) != 1 {
		t.Error("expected the slower alternate's request context to be cancelled once the race was won")
	}
}
