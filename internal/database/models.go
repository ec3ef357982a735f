package database

import (
	"strings"

	"github.com/TobiSchelling/researchlens/internal/research"
)

const (
	// DefaultUserID owns rows written without an explicit user.
	DefaultUserID = "anonymous"
	// DefaultFolder holds saved research filed without a folder.
	DefaultFolder = "General"

	defaultLimit = 20
	maxLimit     = 100
)

// HistoryRecord is a persisted search result.
type HistoryRecord struct {
	ID         int64                 `json:"id"`
	Query      string                `json:"query"`
	SearchMode string                `json:"search_mode"`
	Summary    string                `json:"summary"`
	Sources    []research.SourceItem `json:"sources"`
	Citations  []research.Citation   `json:"citations"`
	UserID     string                `json:"user_id"`
	CreatedAt  string                `json:"created_at"`
	UpdatedAt  string                `json:"updated_at"`
}

// HistoryInput holds the fields of a new history record.
type HistoryInput struct {
	Query      string
	SearchMode string
	Summary    string
	Sources    []research.SourceItem
	Citations  []research.Citation
	UserID     string
}

// HistoryPatch lists the history columns to change. Nil fields are left
// untouched; a blank Query is ignored.
type HistoryPatch struct {
	Query      *string                `json:"query,omitempty"`
	SearchMode *string                `json:"search_mode,omitempty"`
	Summary    *string                `json:"summary,omitempty"`
	Sources    *[]research.SourceItem `json:"sources,omitempty"`
	Citations  *[]research.Citation   `json:"citations,omitempty"`
}

// IsEmpty reports whether the patch modifies no column.
func (p HistoryPatch) IsEmpty() bool {
	return !nonBlank(p.Query) && p.SearchMode == nil && p.Summary == nil && p.Sources == nil && p.Citations == nil
}

// HistoryFilter selects history records.
type HistoryFilter struct {
	UserID string
	Mode   string
	Limit  int
	Offset int
}

// SavedResearch is a bookmarked history record.
type SavedResearch struct {
	ID        int64  `json:"id"`
	SearchID  int64  `json:"search_id"`
	Title     string `json:"title"`
	Folder    string `json:"folder"`
	Notes     string `json:"notes"`
	UserID    string `json:"user_id"`
	SavedAt   string `json:"saved_at"`
	UpdatedAt string `json:"updated_at"`
}

// SavedResearchEntry is a saved item joined with the search it refers to.
type SavedResearchEntry struct {
	SavedResearch
	Query      string                `json:"query"`
	SearchMode string                `json:"search_mode"`
	Summary    string                `json:"summary"`
	Sources    []research.SourceItem `json:"sources"`
	Citations  []research.Citation   `json:"citations"`
	SearchedAt string                `json:"searched_at"`
}

// SavedInput holds the fields of a new saved research item.
type SavedInput struct {
	SearchID int64
	Title    string
	Folder   string
	Notes    string
	UserID   string
}

// SavedPatch lists the saved research columns to change. Blank Title and
// Folder values are ignored; Notes may be cleared.
type SavedPatch struct {
	Title  *string `json:"title,omitempty"`
	Folder *string `json:"folder,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

// IsEmpty reports whether the patch modifies no column.
func (p SavedPatch) IsEmpty() bool {
	return !nonBlank(p.Title) && !nonBlank(p.Folder) && p.Notes == nil
}

// SavedFilter selects saved research.
type SavedFilter struct {
	UserID string
	Folder string
	Limit  int
	Offset int
}

// Folder is a user-defined grouping for saved research.
type Folder struct {
	ID         int64  `json:"id"`
	FolderName string `json:"folder_name"`
	UserID     string `json:"user_id"`
	CreatedAt  string `json:"created_at"`
}

// Stats contains aggregate database statistics.
type Stats struct {
	Searches     int
	Users        int
	SavedItems   int
	Folders      int
	LastSearchAt string
}

func nonBlank(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func userOrDefault(u string) string {
	if u = strings.TrimSpace(u); u != "" {
		return u
	}
	return DefaultUserID
}

func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
