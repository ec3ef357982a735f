package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/TobiSchelling/researchlens/internal/research"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// maxGoogleResults is the most results a single Custom Search call returns.
const maxGoogleResults = 10

// GoogleConfig configures the Programmable Search client.
type GoogleConfig struct {
	APIKey   string
	EngineID string
	// Endpoint overrides the API base URL.
	Endpoint string
}

// GoogleSearcher queries Google Programmable Search. The lookup kinds share
// one searcher; site restrictions travel in the query text.
type GoogleSearcher struct {
	svc      *customsearch.Service
	engineID string
}

// NewGoogleSearcher creates a searcher. Missing credentials are not an
// error: Search reports research.ErrNotConfigured instead.
func NewGoogleSearcher(ctx context.Context, cfg GoogleConfig) (*GoogleSearcher, error) {
	if cfg.APIKey == "" || cfg.EngineID == "" {
		return &GoogleSearcher{}, nil
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating custom search client: %w", err)
	}
	return &GoogleSearcher{svc: svc, engineID: cfg.EngineID}, nil
}

// Configured reports whether credentials were supplied.
func (g *GoogleSearcher) Configured() bool {
	return g.svc != nil
}

// Search returns up to limit hits for query.
func (g *GoogleSearcher) Search(ctx context.Context, query string, limit int) ([]research.Hit, error) {
	if g.svc == nil {
		return nil, research.ErrNotConfigured
	}
	if limit <= 0 || limit > maxGoogleResults {
		limit = maxGoogleResults
	}

	resp, err := g.svc.Cse.List().Cx(g.engineID).Q(query).Num(int64(limit)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("google search: %w", err)
	}

	hits := make([]research.Hit, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil || item.Link == "" {
			continue
		}
		display := item.DisplayLink
		if display == "" {
			display = displayHost(item.Link)
		}
		hits = append(hits, research.Hit{
			Title:      strings.TrimSpace(item.Title),
			URL:        item.Link,
			Snippet:    strings.TrimSpace(item.Snippet),
			DisplayURL: display,
		})
	}
	return hits, nil
}
