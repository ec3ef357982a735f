package research

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
)

// ErrNotConfigured is returned by a Searcher that lacks credentials.
var ErrNotConfigured = errors.New("search integration is not configured")

// Searcher runs a single query against an external search provider.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Hit, error)
}

// Kind identifies a lookup. The declaration order is the merge precedence.
type Kind int

const (
	KindWeb Kind = iota
	KindEncyclopedia
	KindVideo
	KindScholar
	KindNews
)

func (k Kind) String() string {
	switch k {
	case KindWeb:
		return "web"
	case KindEncyclopedia:
		return "encyclopedia"
	case KindVideo:
		return "video"
	case KindScholar:
		return "scholar"
	case KindNews:
		return "news"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Label is the provider label shown to users for items from this lookup.
func (k Kind) Label() string {
	switch k {
	case KindWeb:
		return "Google Search"
	case KindEncyclopedia:
		return "Wikipedia"
	case KindVideo:
		return "YouTube"
	case KindScholar:
		return "Academic Sources"
	case KindNews:
		return "News"
	}
	return k.String()
}

// Limit is the maximum number of hits kept from this lookup.
func (k Kind) Limit() int {
	if k == KindWeb {
		return 10
	}
	return 5
}

// Transform rewrites the user query for this lookup.
func (k Kind) Transform(query string) string {
	switch k {
	case KindEncyclopedia:
		return query + " site:wikipedia.org"
	case KindVideo:
		return query + " site:youtube.com"
	case KindScholar:
		return query + " filetype:pdf OR site:scholar.google.com"
	}
	return query
}

// PlanFor returns the lookups to run for mode, in merge order.
func PlanFor(mode Mode, newsEnabled bool) []Kind {
	plan := []Kind{KindWeb, KindEncyclopedia}
	if mode == ModeTutorial || mode == ModeGeneral {
		plan = append(plan, KindVideo)
	}
	if mode == ModeResearch {
		plan = append(plan, KindScholar)
	}
	if mode == ModeNews && newsEnabled {
		plan = append(plan, KindNews)
	}
	return plan
}

var whitespace = regexp.MustCompile(`\s+`)

// Placeholder builds the deterministic item substituted when a lookup fails.
func Placeholder(k Kind, query string) SourceItem {
	q := url.QueryEscape(query)
	label := k.Label() + demoSuffix
	switch k {
	case KindEncyclopedia:
		return SourceItem{
			Title:      query + " - Wikipedia",
			URL:        "https://en.wikipedia.org/wiki/" + url.PathEscape(whitespace.ReplaceAllString(query, "_")),
			Snippet:    fmt.Sprintf("Wikipedia article about \"%s\". Wikipedia integration is not configured. Click to view on Wikipedia.", query),
			DisplayURL: "wikipedia.org",
			Source:     label,
		}
	case KindVideo:
		return SourceItem{
			Title:      query + " - YouTube Videos",
			URL:        "https://www.youtube.com/results?search_query=" + q,
			Snippet:    fmt.Sprintf("YouTube videos about \"%s\". YouTube integration is not configured. Click to search on YouTube.", query),
			DisplayURL: "youtube.com",
			Source:     label,
		}
	case KindScholar:
		return SourceItem{
			Title:      query + " - Google Scholar",
			URL:        "https://scholar.google.com/scholar?q=" + q,
			Snippet:    fmt.Sprintf("Academic papers about \"%s\". Scholar integration is not configured. Click to search on Google Scholar.", query),
			DisplayURL: "scholar.google.com",
			Source:     label,
		}
	case KindNews:
		return SourceItem{
			Title:      query + " - News",
			URL:        "https://news.google.com/search?q=" + q,
			Snippet:    fmt.Sprintf("Recent news about \"%s\". News integration is not configured. Click to search Google News.", query),
			DisplayURL: "news.google.com",
			Source:     label,
		}
	}
	return SourceItem{
		Title:      query + " - Web Search Results",
		URL:        "https://www.google.com/search?q=" + q,
		Snippet:    fmt.Sprintf("Search results for \"%s\". Google Search integration is not configured. Click to search on Google directly.", query),
		DisplayURL: "google.com",
		Source:     label,
	}
}

// GenericPlaceholder is used when every lookup produced zero items.
func GenericPlaceholder(query string) SourceItem {
	return SourceItem{
		Title:      query + " - General Information",
		URL:        "https://www.google.com/search?q=" + url.QueryEscape(query),
		Snippet:    fmt.Sprintf("General information about \"%s\". Search integrations are not configured.", query),
		DisplayURL: "google.com",
		Source:     "Web Search" + demoSuffix,
	}
}

// toSourceItems labels hits from lookup k, keeping at most k.Limit().
func toSourceItems(k Kind, hits []Hit) []SourceItem {
	if len(hits) > k.Limit() {
		hits = hits[:k.Limit()]
	}
	items := make([]SourceItem, 0, len(hits))
	for _, h := range hits {
		items = append(items, SourceItem{
			Title:      h.Title,
			URL:        h.URL,
			Snippet:    h.Snippet,
			DisplayURL: h.DisplayURL,
			Source:     k.Label(),
		})
	}
	return items
}
