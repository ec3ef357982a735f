package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/TobiSchelling/researchlens/internal/research"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewsAPISearcher_Search(t *testing.T) {
	var gotKey, gotSize string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		gotSize = r.URL.Query().Get("pageSize")
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"articles": [
				{"url": "https://news.example.com/a", "title": "Rates rise", "publishedAt": "2026-01-15T08:00:00Z", "description": "Central bank moves.", "source": {"name": "Example News"}},
				{"url": "https://removed.com", "title": "[Removed]"},
				{"url": "https://www.other.com/b", "title": "Markets", "content": "Stocks fell."}
			]
		}`))
	}))
	defer ts.Close()

	c := NewNewsAPISearcher("secret")
	c.baseURL = ts.URL
	hits, err := c.Search(context.Background(), "interest rates", 5)
	require.NoError(t, err)

	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "5", gotSize)
	require.Len(t, hits, 2)
	assert.Equal(t, "2026-01-15 - Central bank moves.", hits[0].Snippet)
	assert.Equal(t, "Example News", hits[0].DisplayURL)
	assert.Equal(t, "Stocks fell.", hits[1].Snippet)
	assert.Equal(t, "other.com", hits[1].DisplayURL)
}

func TestNewsAPISearcher_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":"error","message":"apiKeyInvalid"}`))
	}))
	defer ts.Close()

	c := NewNewsAPISearcher("bad")
	c.baseURL = ts.URL
	_, err := c.Search(context.Background(), "q", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestNewsAPISearcher_NotConfigured(t *testing.T) {
	_, err := NewNewsAPISearcher("").Search(context.Background(), "q", 5)
	assert.ErrorIs(t, err, research.ErrNotConfigured)
}
