// Package gateway is the thin HTTP entry point in front of the Orchestrator.
// Authentication, CORS, and request-parsing concerns beyond the one scrape
// route are left to whatever sits in front of this service; this package
// carries only the minimal parsing and status mapping needed to run it.
package gateway

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/use-agent/scrapeservice/internal/models"
	"github.com/use-agent/scrapeservice/internal/orchestrator"
)

const defaultDeadline = 30 * time.Second

type scrapeRequestBody struct {
	URL        string `json:"url" binding:"required"`
	DeadlineMs int    `json:"deadline_ms"`
	ImageCount int    `json:"image_count"`
}

// NewRouter wires the one /v1/scrape route plus /health and /metrics.
func NewRouter(orch *orchestrator.Orchestrator, startTime time.Time) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": time.Since(startTime).String(),
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/v1/scrape", func(c *gin.Context) {
		handleScrape(c, orch)
	})

	return r
}

func handleScrape(c *gin.Context, orch *orchestrator.Orchestrator) {
	var body scrapeRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": models.KindInvalidURL, "message": err.Error()}})
		return
	}

	deadlineMs := body.DeadlineMs
	if deadlineMs <= 0 {
		deadlineMs = int(defaultDeadline.Milliseconds())
	}

	req := models.ScrapeRequest{
		URL:        body.URL,
		Deadline:   time.Now().Add(time.Duration(deadlineMs) * time.Millisecond),
		ImageCount: body.ImageCount,
	}

	outcome, err := orch.Scrape(c.Request.Context(), req)
	if err != nil {
		status, detail := StatusFor(err)
		c.JSON(status, gin.H{"error": detail})
		return
	}

	if outcome.Blocked != nil {
		c.JSON(http.StatusUnavailableForLegalReasons, outcome.Blocked)
		return
	}
	c.JSON(http.StatusOK, outcome.Extract)
}

// StatusFor maps a ScrapeError to the HTTP status the gateway should return.
func StatusFor(err error) (int, gin.H) {
	se, ok := models.AsScrapeError(err)
	if !ok {
		return http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR", "message": err.Error()}
	}
	status := http.StatusInternalServerError
	switch se.Code {
	case models.KindInvalidURL:
		status = http.StatusBadRequest
	case models.KindBlockedByChallenge:
		status = http.StatusUnavailableForLegalReasons
	case models.KindTimeout:
		status = http.StatusGatewayTimeout
	}
	return status, gin.H{"code": se.Code, "message": se.Message}
}
