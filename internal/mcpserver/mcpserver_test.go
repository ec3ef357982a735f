package mcpserver

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/researchlens/internal/database"
	"github.com/TobiSchelling/researchlens/internal/research"
)

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content type %T", res.Content[0])
	return ""
}

type fakeHistory struct {
	records []database.HistoryRecord
	err     error
	got     database.HistoryFilter
}

func (f *fakeHistory) ListHistory(_ context.Context, filter database.HistoryFilter) ([]database.HistoryRecord, error) {
	f.got = filter
	return f.records, f.err
}

func offlineTools(h HistoryLister) *Tools {
	return NewTools(research.NewAggregator(nil, nil, research.Options{}), h, "", nil)
}

func TestSearchTool(t *testing.T) {
	tools := offlineTools(nil)

	res, err := tools.Search(context.Background(), callRequest(map[string]any{"query": "photosynthesis", "mode": "research"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	text := resultText(t, res)
	assert.Contains(t, text, "# photosynthesis")
	assert.Contains(t, text, "Mode: research")
	assert.Contains(t, text, "Google Scholar")
}

func TestSearchToolValidation(t *testing.T) {
	tools := offlineTools(nil)

	res, err := tools.Search(context.Background(), callRequest(map[string]any{"query": "  "}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = tools.Search(context.Background(), callRequest(map[string]any{"query": "x", "mode": "poetry"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHistoryTool(t *testing.T) {
	h := &fakeHistory{records: []database.HistoryRecord{
		{ID: 2, Query: "black holes", SearchMode: "research", CreatedAt: "2026-01-02T00:00:00Z"},
		{ID: 1, Query: "photosynthesis", SearchMode: "general", CreatedAt: "2026-01-01T00:00:00Z"},
	}}
	tools := offlineTools(h)

	res, err := tools.History(context.Background(), callRequest(map[string]any{"limit": float64(5), "mode": "Research"}))
	require.NoError(t, err)

	text := resultText(t, res)
	assert.Contains(t, text, "#2 [research] black holes")
	assert.Contains(t, text, "#1 [general] photosynthesis")
	assert.Equal(t, 5, h.got.Limit)
	assert.Equal(t, "research", h.got.Mode)
	assert.Equal(t, database.DefaultUserID, h.got.UserID)
}

func TestHistoryToolDegrades(t *testing.T) {
	res, err := offlineTools(nil).History(context.Background(), callRequest(nil))
	require.NoError(t, err)
	assert.Equal(t, "No searches recorded.", resultText(t, res))

	res, err = offlineTools(&fakeHistory{err: errors.New("locked")}).History(context.Background(), callRequest(nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "No searches recorded.", resultText(t, res))
}

func TestNewRegistersTools(t *testing.T) {
	s := New(offlineTools(nil), "test")
	require.NotNil(t, s)
}
