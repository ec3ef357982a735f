package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/TobiSchelling/researchlens/internal/httputil"
	"github.com/TobiSchelling/researchlens/internal/research"
)

const newsAPIBaseURL = "https://newsapi.org/v2/everything"

// NewsAPISearcher queries NewsAPI's /v2/everything endpoint.
type NewsAPISearcher struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewNewsAPISearcher creates a NewsAPI searcher.
func NewNewsAPISearcher(apiKey string) *NewsAPISearcher {
	return &NewsAPISearcher{
		apiKey:  apiKey,
		baseURL: newsAPIBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Search returns up to limit articles for query, most relevant first.
func (c *NewsAPISearcher) Search(ctx context.Context, query string, limit int) ([]research.Hit, error) {
	if c.apiKey == "" {
		return nil, research.ErrNotConfigured
	}
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	params := url.Values{
		"q":        {query},
		"language": {"en"},
		"pageSize": {strconv.Itoa(limit)},
		"sortBy":   {"relevancy"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := httputil.DoWithRetry(ctx, c.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("newsapi: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("newsapi: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result struct {
		Status   string `json:"status"`
		Message  string `json:"message"`
		Articles []struct {
			URL         string `json:"url"`
			Title       string `json:"title"`
			PublishedAt string `json:"publishedAt"`
			Description string `json:"description"`
			Content     string `json:"content"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("newsapi: decoding response: %w", err)
	}
	if result.Status != "ok" {
		return nil, fmt.Errorf("newsapi: status %q: %s", result.Status, result.Message)
	}

	var hits []research.Hit
	for _, a := range result.Articles {
		if a.URL == "" || a.Title == "" {
			continue
		}
		if a.Title == "[Removed]" || a.URL == "https://removed.com" {
			continue
		}

		snippet := strings.TrimSpace(a.Description)
		if snippet == "" {
			snippet = strings.TrimSpace(a.Content)
		}
		if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			snippet = t.Format("2006-01-02") + " - " + snippet
		}

		display := a.Source.Name
		if display == "" {
			display = displayHost(a.URL)
		}

		hits = append(hits, research.Hit{
			Title:      strings.TrimSpace(a.Title),
			URL:        a.URL,
			Snippet:    truncate(snippet, maxSnippetRunes),
			DisplayURL: display,
		})
		if len(hits) >= limit {
			break
		}
	}
	return hits, nil
}
