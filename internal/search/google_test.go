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

func TestGoogleSearcher_NotConfigured(t *testing.T) {
	g, err := NewGoogleSearcher(context.Background(), GoogleConfig{APIKey: "key"})
	require.NoError(t, err)
	assert.False(t, g.Configured())

	_, err = g.Search(context.Background(), "anything", 5)
	assert.ErrorIs(t, err, research.ErrNotConfigured)
}

func TestGoogleSearcher_MapsItems(t *testing.T) {
	var gotQuery, gotCx, gotNum string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotCx = r.URL.Query().Get("cx")
		gotNum = r.URL.Query().Get("num")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"items": [
				{"title": " Photosynthesis ", "link": "https://en.wikipedia.org/wiki/Photosynthesis", "snippet": "Process used by plants.", "displayLink": "en.wikipedia.org"},
				{"title": "No link"},
				{"title": "Khan Academy", "link": "https://www.khanacademy.org/photosynthesis", "snippet": "Lesson"}
			]
		}`))
	}))
	defer ts.Close()

	g, err := NewGoogleSearcher(context.Background(), GoogleConfig{APIKey: "key", EngineID: "cx-1", Endpoint: ts.URL + "/"})
	require.NoError(t, err)

	hits, err := g.Search(context.Background(), "photosynthesis site:wikipedia.org", 5)
	require.NoError(t, err)

	assert.Equal(t, "photosynthesis site:wikipedia.org", gotQuery)
	assert.Equal(t, "cx-1", gotCx)
	assert.Equal(t, "5", gotNum)

	require.Len(t, hits, 2)
	assert.Equal(t, research.Hit{
		Title:      "Photosynthesis",
		URL:        "https://en.wikipedia.org/wiki/Photosynthesis",
		Snippet:    "Process used by plants.",
		DisplayURL: "en.wikipedia.org",
	}, hits[0])
	assert.Equal(t, "khanacademy.org", hits[1].DisplayURL)
}

func TestGoogleSearcher_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"quota"}}`, http.StatusForbidden)
	}))
	defer ts.Close()

	g, err := NewGoogleSearcher(context.Background(), GoogleConfig{APIKey: "key", EngineID: "cx", Endpoint: ts.URL + "/"})
	require.NoError(t, err)

	_, err = g.Search(context.Background(), "q", 10)
	assert.Error(t, err)
}
