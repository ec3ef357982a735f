// Package research aggregates web, encyclopedia, video and scholarly lookups
// into a single summarized result with citations.
package research

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects which lookups run and which prompt template is used.
type Mode string

const (
	ModeGeneral  Mode = "general"
	ModeResearch Mode = "research"
	ModeNews     Mode = "news"
	ModeTutorial Mode = "tutorial"
)

// Modes lists every supported mode in display order.
var Modes = []Mode{ModeGeneral, ModeResearch, ModeNews, ModeTutorial}

var (
	// ErrEmptyQuery is returned when a request carries no searchable text.
	ErrEmptyQuery = errors.New("query is required")
	// ErrInvalidMode is returned for a mode outside Modes.
	ErrInvalidMode = errors.New("invalid search mode")
)

// ParseMode converts s to a Mode. An empty string yields ModeGeneral.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ModeGeneral, nil
	}
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// SearchRequest is a user query and the mode to run it in.
type SearchRequest struct {
	Query string `json:"query"`
	Mode  Mode   `json:"mode"`
}

// Normalize trims the query, defaults the mode and validates both.
func (r SearchRequest) Normalize() (SearchRequest, error) {
	q := strings.TrimSpace(r.Query)
	if q == "" {
		return r, ErrEmptyQuery
	}
	m, err := ParseMode(string(r.Mode))
	if err != nil {
		return r, err
	}
	return SearchRequest{Query: q, Mode: m}, nil
}

// demoSuffix marks a SourceItem substituted for a failed lookup.
const demoSuffix = " (Demo)"

// SourceItem is a single search hit attributed to a lookup.
type SourceItem struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Snippet    string `json:"snippet"`
	DisplayURL string `json:"displayUrl"`
	Source     string `json:"source"`
}

// IsPlaceholder reports whether the item was generated in place of real results.
func (s SourceItem) IsPlaceholder() bool {
	return strings.HasSuffix(s.Source, demoSuffix)
}

// Citation is a numbered reference to a SourceItem.
type Citation struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Source     string `json:"source"`
	AccessDate string `json:"accessDate"`
	Snippet    string `json:"snippet"`
}

// SearchResult is the response envelope returned to clients.
type SearchResult struct {
	Query     string       `json:"query"`
	Mode      Mode         `json:"mode"`
	Summary   string       `json:"summary"`
	Sources   []SourceItem `json:"sources"`
	Citations []Citation   `json:"citations"`
	Timestamp string       `json:"timestamp"`
	Error     string       `json:"error,omitempty"`
}

// Hit is a raw result returned by a Searcher before it is labelled.
type Hit struct {
	Title      string
	URL        string
	Snippet    string
	DisplayURL string
}

// Citations derives the numbered citation list for sources.
func Citations(sources []SourceItem, accessDate string) []Citation {
	out := make([]Citation, len(sources))
	for i, s := range sources {
		out[i] = Citation{
			ID:         i + 1,
			Title:      s.Title,
			URL:        s.URL,
			Source:     s.Source,
			AccessDate: accessDate,
			Snippet:    s.Snippet,
		}
	}
	return out
}
