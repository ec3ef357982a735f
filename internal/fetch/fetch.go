// Package fetch extracts a readable preview of a source page.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"

	"github.com/TobiSchelling/researchlens/internal/httputil"
)

// ErrInvalidURL is returned for URLs that may not be fetched.
var ErrInvalidURL = errors.New("invalid url")

const maxPreviewRunes = 5000

// Preview is the readable content of a page.
type Preview struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Byline   string `json:"byline,omitempty"`
	SiteName string `json:"siteName,omitempty"`
	Excerpt  string `json:"excerpt"`
	Text     string `json:"text"`
	Length   int    `json:"length"`
}

// Options configure a Previewer.
type Options struct {
	Timeout  time.Duration
	MaxBytes int64
	// AllowPrivate disables the private address check.
	AllowPrivate bool
}

// Previewer fetches pages and runs readability extraction on them.
type Previewer struct {
	client *http.Client
	opts   Options
}

// NewPreviewer creates a Previewer.
func NewPreviewer(opts Options) *Previewer {
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 2 << 20
	}
	p := &Previewer{opts: opts}
	p.client = &http.Client{
		Timeout:   opts.Timeout,
		Transport: newTransport(!opts.AllowPrivate),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			_, err := p.validate(req.URL.String())
			return err
		},
	}
	return p
}

// Preview fetches rawURL and returns its readable text.
func (p *Previewer) Preview(ctx context.Context, rawURL string) (*Preview, error) {
	parsedURL, err := p.validate(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsedURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", "researchlens/1.0 (source preview)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := httputil.DoWithRetry(ctx, p.client, req, 1)
	if errors.Is(err, errBlockedAddress) {
		return nil, fmt.Errorf("%w: %s resolves to a %v", ErrInvalidURL, parsedURL.Host, errBlockedAddress)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", parsedURL.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &HTTPError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.opts.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(string(body)), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("extracting content: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return nil, errors.New("no extractable content")
	}

	return &Preview{
		URL:      rawURL,
		Title:    strings.TrimSpace(article.Title),
		Byline:   strings.TrimSpace(article.Byline),
		SiteName: article.SiteName,
		Excerpt:  strings.TrimSpace(article.Excerpt),
		Text:     clip(text, maxPreviewRunes),
		Length:   utf8.RuneCountInString(text),
	}, nil
}

func (p *Previewer) validate(rawURL string) (*url.URL, error) {
	u, err := checkURL(rawURL, p.opts.AllowPrivate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	return u, nil
}

// HTTPError is a non-success status from the fetched site.
type HTTPError struct {
	Code int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("upstream returned %d %s", e.Code, http.StatusText(e.Code))
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}
