package database

import (
	"context"
	"database/sql"
	"errors"
)

// GetStats returns aggregate database statistics.
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM search_history", &s.Searches},
		{"SELECT COUNT(DISTINCT user_id) FROM search_history", &s.Users},
		{"SELECT COUNT(*) FROM saved_research", &s.SavedItems},
		{"SELECT COUNT(*) FROM research_folders", &s.Folders},
	}

	for _, q := range queries {
		if err := db.queryRow(ctx, q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	var last sql.NullString
	if err := db.queryRow(ctx, "SELECT MAX(created_at) FROM search_history").Scan(&last); err != nil {
		return nil, err
	}
	s.LastSearchAt = last.String

	return s, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
