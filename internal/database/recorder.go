package database

import (
	"context"

	"github.com/TobiSchelling/researchlens/internal/research"
)

// Recorder persists aggregated results as search history.
type Recorder struct {
	db *DB
}

// NewRecorder returns a research.HistoryRecorder backed by db.
func NewRecorder(db *DB) *Recorder {
	return &Recorder{db: db}
}

// RecordSearch stores result for userID.
func (r *Recorder) RecordSearch(ctx context.Context, userID string, result *research.SearchResult) error {
	_, err := r.db.CreateHistory(ctx, HistoryInput{
		Query:      result.Query,
		SearchMode: string(result.Mode),
		Summary:    result.Summary,
		Sources:    result.Sources,
		Citations:  result.Citations,
		UserID:     userID,
	})
	return err
}
