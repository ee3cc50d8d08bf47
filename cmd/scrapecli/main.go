// Command scrapecli is a development tool that drives the Orchestrator
// directly, bypassing the gateway, for ad-hoc single-URL runs against a
// terminal. Flag layout is grounded on the pack's cobra-based spider CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/use-agent/scrapeservice/internal/browserfetch"
	"github.com/use-agent/scrapeservice/internal/config"
	"github.com/use-agent/scrapeservice/internal/httpfetch"
	"github.com/use-agent/scrapeservice/internal/models"
	"github.com/use-agent/scrapeservice/internal/orchestrator"
)

const (
	cliName = "scrapecli"
	version = "v1.0"
)

var command = &cobra.Command{
	Use:   cliName,
	Short: fmt.Sprintf("Run the article-extraction pipeline against one URL - %s", version),
	RunE:  run,
}

func main() {
	command.Flags().StringP("url", "u", "", "URL to scrape (required)")
	command.Flags().DurationP("deadline", "d", 30*time.Second, "time budget for the whole request, counted from start")
	command.Flags().IntP("images", "n", 3, "number of image candidates to return")
	command.Flags().Bool("pretty", true, "pretty-print the JSON result")
	_ = command.MarkFlagRequired("url")

	if err := command.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	url, _ := cmd.Flags().GetString("url")
	deadline, _ := cmd.Flags().GetDuration("deadline")
	images, _ := cmd.Flags().GetInt("images")
	pretty, _ := cmd.Flags().GetBool("pretty")

	cfg := config.Load()
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

	req := models.ScrapeRequest{
		URL:        url,
		Deadline:   time.Now().Add(deadline),
		ImageCount: images,
	}

	outcome, err := orch.Scrape(context.Background(), req)
	if err != nil {
		return err
	}

	var payload any
	switch {
	case outcome.Blocked != nil:
		payload = outcome.Blocked
	default:
		payload = outcome.Extract
	}

	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(payload)
}
