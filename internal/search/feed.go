package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/TobiSchelling/researchlens/internal/research"
	"github.com/mmcdole/gofeed"
)

const maxSnippetRunes = 300

// FeedSearcher runs news lookups against an RSS/Atom search feed. The URL
// template carries a {query} placeholder, e.g. Google News RSS search.
type FeedSearcher struct {
	urlTemplate string
	parser      *gofeed.Parser
}

// NewFeedSearcher creates a searcher for the given feed URL template.
func NewFeedSearcher(urlTemplate string) *FeedSearcher {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: 30 * time.Second}
	parser.UserAgent = "researchlens/1.0"
	return &FeedSearcher{urlTemplate: urlTemplate, parser: parser}
}

// Search fetches the feed for query and returns up to limit entries.
func (f *FeedSearcher) Search(ctx context.Context, query string, limit int) ([]research.Hit, error) {
	if f.urlTemplate == "" {
		return nil, research.ErrNotConfigured
	}
	feedURL := strings.ReplaceAll(f.urlTemplate, "{query}", url.QueryEscape(query))

	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	var hits []research.Hit
	for _, item := range feed.Items {
		if limit > 0 && len(hits) >= limit {
			break
		}
		if hit, ok := parseItem(item); ok {
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

func parseItem(item *gofeed.Item) (research.Hit, bool) {
	itemURL := item.Link
	if itemURL == "" {
		itemURL = item.GUID
	}
	if itemURL == "" {
		return research.Hit{}, false
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		return research.Hit{}, false
	}

	var content string
	if item.Description != "" {
		content = stripHTML(item.Description)
	} else if item.Content != "" {
		content = stripHTML(item.Content)
	}
	if item.PublishedParsed != nil {
		date := item.PublishedParsed.Format("2006-01-02")
		if content == "" {
			content = date
		} else {
			content = date + " - " + content
		}
	}

	return research.Hit{
		Title:      title,
		URL:        itemURL,
		Snippet:    truncate(content, maxSnippetRunes),
		DisplayURL: displayHost(itemURL),
	}, true
}

func stripHTML(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			result.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}

	s := result.String()
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")

	return strings.Join(strings.Fields(s), " ")
}
