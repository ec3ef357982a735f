package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservers(t *testing.T) {
	m := New()

	m.ObserveSearch("general", 2*time.Second)
	m.ObserveSearch("general", time.Second)
	m.ObserveLookup("web", false)
	m.ObserveLookup("video", true)
	m.ObserveSummary(true)
	m.ObserveHistoryWrite(errors.New("locked"))
	m.ObserveRequest("POST /api/search", 200)
	m.ObserveRequest("GET /api/search-history", 503)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.searches.WithLabelValues("general")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lookups.WithLabelValues("video", "placeholder")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.summaries.WithLabelValues("extractive")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.historyWrites.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET /api/search-history", "5xx")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveSearch("general", time.Second)
	m.ObserveLookup("web", true)
	m.ObserveSummary(false)
	m.ObserveHistoryWrite(nil)
	m.ObserveRequest("x", 200)
	assert.Nil(t, m.Registry())
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveSearch("news", time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `researchlens_searches_total{mode="news"} 1`))
}
