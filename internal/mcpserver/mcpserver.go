// Package mcpserver exposes research search and history as Model Context
// Protocol tools over stdio.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/TobiSchelling/researchlens/internal/database"
	"github.com/TobiSchelling/researchlens/internal/export"
	"github.com/TobiSchelling/researchlens/internal/research"
)

const (
	SearchToolName  = "research_search"
	HistoryToolName = "research_history"

	defaultHistoryLimit = 10
)

// Aggregator runs searches.
type Aggregator interface {
	Aggregate(ctx context.Context, req research.SearchRequest) (*research.SearchResult, error)
}

// HistoryLister reads recorded searches.
type HistoryLister interface {
	ListHistory(ctx context.Context, f database.HistoryFilter) ([]database.HistoryRecord, error)
}

// Tools holds the tool handlers. A nil history disables persistence and the
// history tool reports no searches.
type Tools struct {
	agg     Aggregator
	history HistoryLister
	userID  string
	log     *slog.Logger
}

// NewTools creates the tool handlers.
func NewTools(agg Aggregator, history HistoryLister, userID string, logger *slog.Logger) *Tools {
	if userID == "" {
		userID = database.DefaultUserID
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tools{agg: agg, history: history, userID: userID, log: logger.With("component", "mcp")}
}

// New builds an MCP server with the research tools registered.
func New(t *Tools, version string) *server.MCPServer {
	s := server.NewMCPServer("researchlens", version)

	modes := make([]string, len(research.Modes))
	for i, m := range research.Modes {
		modes[i] = string(m)
	}

	searchTool := mcp.NewTool(SearchToolName,
		mcp.WithDescription("Search the web, Wikipedia, videos and scholarly sources for a question and return a cited summary."),
		mcp.WithString("query", mcp.Required(), mcp.Description("The question or topic to research")),
		mcp.WithString("mode", mcp.Description("Search mode, defaults to general"), mcp.Enum(modes...)),
	)
	s.AddTool(searchTool, t.Search)

	historyTool := mcp.NewTool(HistoryToolName,
		mcp.WithDescription("List recent research searches, newest first."),
		mcp.WithString("mode", mcp.Description("Only list searches made in this mode"), mcp.Enum(modes...)),
		mcp.WithString("user_id", mcp.Description("Owner of the history, defaults to the configured user")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of searches to list (default 10)")),
	)
	s.AddTool(historyTool, t.History)

	return s
}

// ServeStdio serves s over stdin and stdout until the input is closed.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// Search runs the research_search tool.
func (t *Tools) Search(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, _ := req.Params.Arguments["query"].(string)
	mode, _ := req.Params.Arguments["mode"].(string)

	result, err := t.agg.Aggregate(ctx, research.SearchRequest{Query: query, Mode: research.Mode(mode)})
	if err != nil {
		if errors.Is(err, research.ErrEmptyQuery) || errors.Is(err, research.ErrInvalidMode) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		t.log.Error("search tool failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	return mcp.NewToolResultText(export.MarkdownReport(&database.HistoryRecord{
		Query:      result.Query,
		SearchMode: string(result.Mode),
		Summary:    result.Summary,
		Sources:    result.Sources,
		Citations:  result.Citations,
		CreatedAt:  result.Timestamp,
	})), nil
}

// History runs the research_history tool.
func (t *Tools) History(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.history == nil {
		return mcp.NewToolResultText("No searches recorded."), nil
	}

	f := database.HistoryFilter{UserID: t.userID, Limit: defaultHistoryLimit}
	if u, ok := req.Params.Arguments["user_id"].(string); ok && strings.TrimSpace(u) != "" {
		f.UserID = strings.TrimSpace(u)
	}
	if m, ok := req.Params.Arguments["mode"].(string); ok && m != "" {
		mode, err := research.ParseMode(m)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		f.Mode = string(mode)
	}
	if l, ok := req.Params.Arguments["limit"].(float64); ok && l > 0 {
		f.Limit = int(l)
	}

	records, err := t.history.ListHistory(ctx, f)
	if err != nil {
		t.log.Warn("listing history for tool", "error", err)
		records = nil
	}
	if len(records) == 0 {
		return mcp.NewToolResultText("No searches recorded."), nil
	}

	var b strings.Builder
	for _, r := range records {
		fmt.Fprintf(&b, "#%d [%s] %s (%s)\n", r.ID, r.SearchMode, r.Query, r.CreatedAt)
	}
	return mcp.NewToolResultText(b.String()), nil
}
