// Package config loads runtime configuration from the environment using a
// small envOr/envIntOr/envDurationOr helper idiom.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Gateway GatewayConfig
	Fetch   FetchConfig
	Browser BrowserConfig
	Log     LogConfig
}

// GatewayConfig controls the thin HTTP gateway.
type GatewayConfig struct {
	Host string // default "0.0.0.0"
	Port int    // default 8080
	Mode string // gin mode: "debug" | "release" | "test"
}

// FetchConfig controls HTTPFetcher and the Orchestrator's phase budgets.
type FetchConfig struct {
	UserAgent          string        // default recent Chrome-on-Windows UA
	ChromeMajorVersion  int           // default 131, must stay in sync with BrowserFetcher's UA
	HTTPBudget          time.Duration // default 18s
	BrowserBudget       time.Duration // default 40s
	DeadlineSafetyMargin time.Duration // default 3s
	MaxHTMLBytes        int64         // default 6 MiB
	DefaultImageCount   int           // default 3
	Proxy               string
}

// BrowserConfig controls the headless browser launch.
type BrowserConfig struct {
	BrowserBin string // override Chromium binary path
	NoSandbox  bool   // default true (containers)
	Timezone   string // default "America/New_York"
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default "info"
	Format string // "json" or "text"; default "json"
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Host: envOr("SCRAPE_GATEWAY_HOST", "0.0.0.0"),
			Port: envIntOr("SCRAPE_GATEWAY_PORT", 8080),
			Mode: envOr("SCRAPE_GATEWAY_MODE", "release"),
		},
		Fetch: FetchConfig{
			UserAgent:            envOr("SCRAPE_USER_AGENT", defaultUserAgent),
			ChromeMajorVersion:   envIntOr("SCRAPE_CHROME_MAJOR_VERSION", 131),
			HTTPBudget:           envDurationOr("SCRAPE_HTTP_BUDGET", 18*time.Second),
			BrowserBudget:        envDurationOr("SCRAPE_BROWSER_BUDGET", 40*time.Second),
			DeadlineSafetyMargin: envDurationOr("SCRAPE_DEADLINE_SAFETY_MARGIN", 3*time.Second),
			MaxHTMLBytes:         int64(envIntOr("SCRAPE_MAX_HTML_BYTES", 6*1024*1024)),
			DefaultImageCount:    envIntOr("SCRAPE_IMAGE_COUNT", 3),
			Proxy:                os.Getenv("SCRAPE_PROXY"),
		},
		Browser: BrowserConfig{
			BrowserBin: os.Getenv("SCRAPE_BROWSER_BIN"),
			NoSandbox:  envBoolOr("SCRAPE_NO_SANDBOX", true),
			Timezone:   envOr("SCRAPE_TIMEZONE", "America/New_York"),
		},
		Log: LogConfig{
			Level:  envOr("SCRAPE_LOG_LEVEL", "info"),
			Format: envOr("SCRAPE_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
