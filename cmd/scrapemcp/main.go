package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// scrapeRequest mirrors the gateway's /v1/scrape request body.
type scrapeRequest struct {
	URL        string `json:"url"`
	DeadlineMs int    `json:"deadline_ms,omitempty"`
	ImageCount int    `json:"image_count,omitempty"`
}

// scrapeResponse mirrors the gateway's ExtractResult shape.
type scrapeResponse struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	Images      []string `json:"images"`
	Metadata    *struct {
		URL        string `json:"url"`
		FetchPhase string `json:"fetchPhase"`
	} `json:"metadata"`
	Provider string `json:"provider"` // set when the gateway returned a BlockedResult
	Error    *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("SCRAPE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}

	s := server.NewMCPServer(
		"scrapeservice",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	scrapeURLTool := mcp.NewTool("scrape_url",
		mcp.WithDescription("Fetch a web page and return its extracted article: title, description, sanitized body text, and up to a few representative image URLs. Falls back to a headless browser for pages a plain HTTP fetch can't retrieve or that are gated behind an anti-bot challenge."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to scrape"),
		),
		mcp.WithNumber("deadline_ms",
			mcp.Description("Time budget for the whole request in milliseconds, counted from when the gateway receives it (default 30000)"),
		),
		mcp.WithNumber("image_count",
			mcp.Description("Number of image candidates to return (default 3)"),
		),
	)
	s.AddTool(scrapeURLTool, handleScrapeURL(apiURL))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleScrapeURL(apiURL string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 90 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		reqBody := scrapeRequest{URL: url}
		args := request.GetArguments()
		if v, ok := args["deadline_ms"]; ok {
			if f, ok := v.(float64); ok {
				reqBody.DeadlineMs = int(f)
			}
		}
		if v, ok := args["image_count"]; ok {
			if f, ok := v.(float64); ok {
				reqBody.ImageCount = int(f)
			}
		}

		body, err := json.Marshal(reqBody)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal request: %v", err)), nil
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+"/v1/scrape", bytes.NewReader(body))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(httpReq)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("scrape request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read response: %v", err)), nil
		}

		if resp.StatusCode == http.StatusUnavailableForLegalReasons {
			return mcp.NewToolResultText(fmt.Sprintf("Blocked by an anti-bot challenge: %s", string(respBody))), nil
		}

		var scrapeResp scrapeResponse
		if err := json.Unmarshal(respBody, &scrapeResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if resp.StatusCode != http.StatusOK {
			errMsg := "scrape failed"
			if scrapeResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", scrapeResp.Error.Code, scrapeResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		var result string
		if scrapeResp.Metadata != nil {
			result = fmt.Sprintf("Title: %s\nSource: %s\n\n", scrapeResp.Title, scrapeResp.Metadata.URL)
		}
		result += scrapeResp.Content

		if len(scrapeResp.Images) > 0 {
			result += "\n\n---\nImages:\n"
			for _, img := range scrapeResp.Images {
				result += img + "\n"
			}
		}

		return mcp.NewToolResultText(result), nil
	}
}
