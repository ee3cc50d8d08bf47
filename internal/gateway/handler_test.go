package gateway

import (
	"net/http"
	"testing"

	"github.com/use-agent/scrapeservice/internal/models"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid url", models.NewScrapeError(models.KindInvalidURL, "bad", nil), http.StatusBadRequest},
		{"blocked", models.NewBlockedError("cloudflare", "example.com"), http.StatusUnavailableForLegalReasons},
		{"timeout", models.NewTimeoutError("http"), http.StatusGatewayTimeout},
		{"extraction failed", models.NewScrapeError(models.KindExtractionFailed, "x", nil), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := StatusFor(tc.err)
			if status != tc.want {
				t.Errorf("StatusFor(%v) = %d, want %d", tc.err, status, tc.want)
			}
		})
	}
}
