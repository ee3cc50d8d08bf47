package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/scrapeservice/internal/browserfetch"
	"github.com/use-agent/scrapeservice/internal/config"
	"github.com/use-agent/scrapeservice/internal/gateway"
	"github.com/use-agent/scrapeservice/internal/httpfetch"
	"github.com/use-agent/scrapeservice/internal/orchestrator"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("scrapeservice starting",
		"host", cfg.Gateway.Host,
		"port", cfg.Gateway.Port,
		"httpBudget", cfg.Fetch.HTTPBudget,
		"browserBudget", cfg.Fetch.BrowserBudget,
	)

	// ── 3. Initialise collaborators ─────────────────────────────────
	fetcher := httpfetch.New(cfg.Fetch.UserAgent, cfg.Fetch.Proxy, cfg.Fetch.MaxHTMLBytes)
	browserCfg := browserfetch.Config{
		UserAgent:  cfg.Fetch.UserAgent,
		BrowserBin: cfg.Browser.BrowserBin,
		NoSandbox:  cfg.Browser.NoSandbox,
		Timezone:   cfg.Browser.Timezone,
	}
	budgets := orchestrator.Budgets{
		HTTP:         cfg.Fetch.HTTPBudget,
		Browser:      cfg.Fetch.BrowserBudget,
		SafetyMargin: cfg.Fetch.DeadlineSafetyMargin,
	}
	orch := orchestrator.New(fetcher, browserCfg, budgets)

	// ── 4. Setup router ──────────────────────────────────────────────
	gin.SetMode(cfg.Gateway.Mode)
	startTime := time.Now()
	router := gateway.NewRouter(orch, startTime)

	// ── 5. Start HTTP server ─────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 6. Graceful shutdown ─────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("scrapeservice stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
