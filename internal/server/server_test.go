package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/researchlens/internal/database"
	"github.com/TobiSchelling/researchlens/internal/fetch"
	"github.com/TobiSchelling/researchlens/internal/metrics"
	"github.com/TobiSchelling/researchlens/internal/research"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to open test db")
	t.Cleanup(func() { db.Close() })
	return db
}

// offlineAggregator has no searchers and no summarizer, so every search
// yields placeholder sources and an extractive summary.
func offlineAggregator() *research.Aggregator {
	return research.NewAggregator(nil, nil, research.Options{})
}

func newTestServer(t *testing.T, store Store, opts Options) http.Handler {
	t.Helper()
	return New(offlineAggregator(), store, opts).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "decoding response %q", rec.Body.String())
	return v
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, "body: %s", rec.Body.String())
}

func TestSearchRoute(t *testing.T) {
	h := newTestServer(t, nil, Options{})

	rec := do(t, h, "POST", "/api/search", `{"query":"photosynthesis","mode":"general"}`)
	requireStatus(t, rec, http.StatusOK)

	res := decode[research.SearchResult](t, rec)
	assert.Equal(t, "photosynthesis", res.Query)
	assert.Equal(t, research.ModeGeneral, res.Mode)
	assert.Len(t, res.Sources, 3)
	assert.Len(t, res.Citations, 3)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSearchRouteKeepsQuotesInQuery(t *testing.T) {
	h := newTestServer(t, nil, Options{})

	rec := do(t, h, "POST", "/api/search", `{"query":"what is \"dark matter\"?"}`)
	requireStatus(t, rec, http.StatusOK)

	res := decode[research.SearchResult](t, rec)
	assert.Contains(t, res.Summary, `about "what is "dark matter"?"`)
	for _, s := range res.Sources {
		assert.NotContains(t, s.Snippet, `\"`)
	}
}

func TestSearchRouteValidation(t *testing.T) {
	h := newTestServer(t, nil, Options{})

	for _, body := range []string{`{"query":"   "}`, `{"query":"x","mode":"poetry"}`, `not json`, ``} {
		rec := do(t, h, "POST", "/api/search", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Contains(t, rec.Body.String(), `"error"`, body)
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	h := newTestServer(t, nil, Options{})
	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestHistoryLifecycle(t *testing.T) {
	db := openTestDB(t)
	h := newTestServer(t, db, Options{StorageDriver: "sqlite"})

	rec := do(t, h, "POST", "/api/search-history",
		`{"query":"photosynthesis","mode":"research","summary":"Plants make sugar.","sources":[{"title":"A","url":"https://a.example","snippet":"s","displayUrl":"a.example","source":"Google Search"}]}`)
	requireStatus(t, rec, http.StatusCreated)
	created := decode[createHistoryResponse](t, rec)
	require.True(t, created.Persisted)
	require.NotZero(t, created.ID)
	assert.Equal(t, "research", created.SearchMode, "mode alias should be honoured")

	list := decode[[]database.HistoryRecord](t, do(t, h, "GET", "/api/search-history", ""))
	require.Len(t, list, 1)
	assert.Equal(t, "photosynthesis", list[0].Query)

	rec = do(t, h, "GET", fmt.Sprintf("/api/search-history/%d", created.ID), "")
	requireStatus(t, rec, http.StatusOK)

	rec = do(t, h, "PUT", "/api/search-history", fmt.Sprintf(`{"id":"%d","summary":"Updated."}`, created.ID))
	requireStatus(t, rec, http.StatusOK)
	updated := decode[database.HistoryRecord](t, rec)
	assert.Equal(t, "Updated.", updated.Summary)
	assert.Equal(t, "photosynthesis", updated.Query)

	rec = do(t, h, "DELETE", fmt.Sprintf("/api/search-history?id=%d", created.ID), "")
	requireStatus(t, rec, http.StatusOK)
	rec = do(t, h, "GET", fmt.Sprintf("/api/search-history/%d", created.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryFilters(t *testing.T) {
	db := openTestDB(t)
	h := newTestServer(t, db, Options{})

	do(t, h, "POST", "/api/search-history", `{"query":"a","search_mode":"news","user_id":"u1"}`)
	do(t, h, "POST", "/api/search-history", `{"query":"b","search_mode":"general","user_id":"u1"}`)
	do(t, h, "POST", "/api/search-history", `{"query":"c","search_mode":"news","user_id":"u2"}`)

	list := decode[[]database.HistoryRecord](t, do(t, h, "GET", "/api/search-history?user_id=u1&mode=news", ""))
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].Query)

	list = decode[[]database.HistoryRecord](t, do(t, h, "GET", "/api/search-history?user_id=u1&limit=1", ""))
	assert.Len(t, list, 1)
}

func TestHistoryCreateEmptyQuery(t *testing.T) {
	h := newTestServer(t, openTestDB(t), Options{})
	rec := do(t, h, "POST", "/api/search-history", `{"query":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryUpdateErrors(t *testing.T) {
	h := newTestServer(t, openTestDB(t), Options{})

	cases := []struct {
		body string
		want int
	}{
		{`{"summary":"x"}`, http.StatusBadRequest},
		{`{"id":42}`, http.StatusBadRequest},
		{`{"id":42,"query":"   "}`, http.StatusBadRequest},
		{`{"id":999,"summary":"x"}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := do(t, h, "PUT", "/api/search-history", tc.body)
		assert.Equal(t, tc.want, rec.Code, tc.body)
	}
}

func TestHistoryDeleteErrors(t *testing.T) {
	h := newTestServer(t, openTestDB(t), Options{})

	assert.Equal(t, http.StatusBadRequest, do(t, h, "DELETE", "/api/search-history", "").Code, "missing id")
	assert.Equal(t, http.StatusNotFound, do(t, h, "DELETE", "/api/search-history?id=999", "").Code, "absent id")
}

func TestHistoryExport(t *testing.T) {
	db := openTestDB(t)
	rec, err := db.CreateHistory(context.Background(), database.HistoryInput{
		Query:   "photosynthesis",
		Summary: "Plants convert light.",
	})
	require.NoError(t, err)
	h := newTestServer(t, db, Options{})

	resp := do(t, h, "GET", fmt.Sprintf("/api/search-history/%d/export?format=html", rec.ID), "")
	requireStatus(t, resp, http.StatusOK)
	assert.True(t, strings.HasPrefix(resp.Header().Get("Content-Type"), "text/html"), resp.Header().Get("Content-Type"))
	assert.Contains(t, resp.Body.String(), "photosynthesis")

	resp = do(t, h, "GET", fmt.Sprintf("/api/search-history/%d/export?format=pdf", rec.ID), "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestNoStoreDegrades(t *testing.T) {
	h := newTestServer(t, nil, Options{})

	for _, path := range []string{"/api/search-history", "/api/saved-research", "/api/research-folders"} {
		rec := do(t, h, "GET", path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, "[]", rec.Body.String(), path)
	}

	rec := do(t, h, "POST", "/api/search-history", `{"query":"photosynthesis"}`)
	requireStatus(t, rec, http.StatusOK)
	echo := decode[createHistoryResponse](t, rec)
	assert.False(t, echo.Persisted)
	assert.NotEmpty(t, echo.Message)
	assert.Equal(t, "photosynthesis", echo.Query)

	rec = do(t, h, "POST", "/api/research-folders", `{"folder_name":"Biology"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// failingStore returns an error from every list and create call.
type failingStore struct {
	Store
}

var errBroken = errors.New("database is locked")

func (failingStore) CreateHistory(context.Context, database.HistoryInput) (*database.HistoryRecord, error) {
	return nil, errBroken
}

func (failingStore) ListHistory(context.Context, database.HistoryFilter) ([]database.HistoryRecord, error) {
	return nil, errBroken
}

func (failingStore) ListSaved(context.Context, database.SavedFilter) ([]database.SavedResearchEntry, error) {
	return nil, errBroken
}

func (failingStore) ListFolders(context.Context, string) ([]database.Folder, error) {
	return nil, errBroken
}

func (failingStore) Ping(context.Context) error { return errBroken }

func TestFailingStoreDegrades(t *testing.T) {
	h := newTestServer(t, failingStore{}, Options{StorageDriver: "sqlite"})

	rec := do(t, h, "GET", "/api/search-history", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = do(t, h, "POST", "/api/search-history", `{"query":"q"}`)
	assert.Equal(t, http.StatusOK, rec.Code, "history create should echo on store failure")

	rec = do(t, h, "GET", "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSavedResearchRoutes(t *testing.T) {
	db := openTestDB(t)
	h := newTestServer(t, db, Options{})

	created := decode[createHistoryResponse](t, do(t, h, "POST", "/api/search-history", `{"query":"photosynthesis"}`))

	rec := do(t, h, "POST", "/api/saved-research", `{"title":"missing search"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, "POST", "/api/saved-research", fmt.Sprintf(`{"search_id":%d,"title":"Plants","notes":"read later"}`, created.ID))
	requireStatus(t, rec, http.StatusCreated)
	saved := decode[database.SavedResearch](t, rec)
	assert.Equal(t, database.DefaultFolder, saved.Folder)

	entries := decode[[]database.SavedResearchEntry](t, do(t, h, "GET", "/api/saved-research", ""))
	require.Len(t, entries, 1)
	assert.Equal(t, "photosynthesis", entries[0].Query)

	rec = do(t, h, "PUT", "/api/saved-research", fmt.Sprintf(`{"id":%d,"folder":"Biology"}`, saved.ID))
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, "Biology", decode[database.SavedResearch](t, rec).Folder)

	rec = do(t, h, "PUT", "/api/saved-research", `{"id":999,"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, "DELETE", fmt.Sprintf("/api/saved-research?id=%d", saved.ID), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFolderRoutes(t *testing.T) {
	h := newTestServer(t, openTestDB(t), Options{})

	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/api/research-folders", `{"folder_name":""}`).Code)
	requireStatus(t, do(t, h, "POST", "/api/research-folders", `{"folder_name":"Biology"}`), http.StatusCreated)
	assert.Equal(t, http.StatusConflict, do(t, h, "POST", "/api/research-folders", `{"folder_name":"Biology"}`).Code)
	do(t, h, "POST", "/api/research-folders", `{"folder_name":"Astronomy"}`)

	folders := decode[[]database.Folder](t, do(t, h, "GET", "/api/research-folders", ""))
	require.Len(t, folders, 2)
	assert.Equal(t, "Astronomy", folders[0].FolderName)
}

type stubPreviewer struct {
	err error
}

func (p stubPreviewer) Preview(_ context.Context, rawURL string) (*fetch.Preview, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &fetch.Preview{URL: rawURL, Title: "Page", Text: "Body"}, nil
}

func TestPreviewRoute(t *testing.T) {
	h := newTestServer(t, nil, Options{Previewer: stubPreviewer{}})
	rec := do(t, h, "GET", "/api/preview?url=https://example.com", "")
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, "Page", decode[fetch.Preview](t, rec).Title)

	assert.Equal(t, http.StatusBadRequest, do(t, h, "GET", "/api/preview", "").Code, "missing url")

	h = newTestServer(t, nil, Options{Previewer: stubPreviewer{err: fmt.Errorf("%w: private address", fetch.ErrInvalidURL)}})
	assert.Equal(t, http.StatusBadRequest, do(t, h, "GET", "/api/preview?url=http://127.0.0.1", "").Code, "blocked url")

	h = newTestServer(t, nil, Options{Previewer: stubPreviewer{err: errors.New("connection refused")}})
	assert.Equal(t, http.StatusBadGateway, do(t, h, "GET", "/api/preview?url=https://example.com", "").Code, "fetch failure")

	h = newTestServer(t, nil, Options{})
	assert.Equal(t, http.StatusNotFound, do(t, h, "GET", "/api/preview?url=https://example.com", "").Code, "previews disabled")
}

func TestHealthAndMetrics(t *testing.T) {
	m := metrics.New()
	h := newTestServer(t, openTestDB(t), Options{StorageDriver: "sqlite", Metrics: m})

	rec := do(t, h, "GET", "/healthz", "")
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, "sqlite", decode[map[string]string](t, rec)["storage"])

	rec = do(t, h, "GET", "/metrics", "")
	requireStatus(t, rec, http.StatusOK)
	assert.Contains(t, rec.Body.String(), "GET /healthz", "request metric should be labelled with the route pattern")
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, nil, Options{CORSOrigins: []string{"https://app.example"}})
	req := httptest.NewRequest("OPTIONS", "/api/search", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

type panicAggregator struct{}

func (panicAggregator) Aggregate(context.Context, research.SearchRequest) (*research.SearchResult, error) {
	panic("boom")
}

func TestRecoverer(t *testing.T) {
	h := New(panicAggregator{}, nil, Options{}).Handler()
	rec := do(t, h, "POST", "/api/search", `{"query":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
