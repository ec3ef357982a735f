// Package search implements the external lookups used by the aggregator.
package search

import (
	"context"
	"net/url"
	"os"
	"strings"

	"github.com/TobiSchelling/researchlens/internal/config"
	"github.com/TobiSchelling/researchlens/internal/research"
)

// FromConfig builds the searcher for every lookup kind. Lookups whose
// credentials are missing still get a searcher; it reports
// research.ErrNotConfigured and the aggregator substitutes a placeholder.
func FromConfig(ctx context.Context, cfg *config.Config) (map[research.Kind]research.Searcher, error) {
	google, err := NewGoogleSearcher(ctx, GoogleConfig{
		APIKey:   os.Getenv(cfg.Search.Google.APIKeyEnv),
		EngineID: os.Getenv(cfg.Search.Google.EngineIDEnv),
	})
	if err != nil {
		return nil, err
	}

	searchers := map[research.Kind]research.Searcher{
		research.KindWeb:          google,
		research.KindEncyclopedia: google,
		research.KindVideo:        google,
		research.KindScholar:      google,
	}

	if cfg.Search.News.Enabled {
		switch cfg.Search.News.Backend {
		case config.NewsBackendNewsAPI:
			searchers[research.KindNews] = NewNewsAPISearcher(os.Getenv(cfg.Search.News.APIKeyEnv))
		default:
			searchers[research.KindNews] = NewFeedSearcher(cfg.Search.News.FeedURL)
		}
	}
	return searchers, nil
}

func displayHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}
