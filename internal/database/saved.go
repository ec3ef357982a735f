package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// CreateSaved bookmarks a history record. The referenced search is not
// checked; entries whose search no longer exists are hidden by ListSaved.
func (db *DB) CreateSaved(ctx context.Context, in SavedInput) (*SavedResearch, error) {
	title := strings.TrimSpace(in.Title)
	if in.SearchID == 0 || title == "" {
		return nil, errors.New("search_id and title are required")
	}
	folder := strings.TrimSpace(in.Folder)
	if folder == "" {
		folder = DefaultFolder
	}

	now := db.timestamp()
	s := &SavedResearch{
		SearchID:  in.SearchID,
		Title:     title,
		Folder:    folder,
		Notes:     in.Notes,
		UserID:    userOrDefault(in.UserID),
		SavedAt:   now,
		UpdatedAt: now,
	}

	err := db.queryRow(ctx,
		`INSERT INTO saved_research (search_id, title, folder, notes, user_id, saved_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		s.SearchID, s.Title, s.Folder, s.Notes, s.UserID, now, now,
	).Scan(&s.ID)
	if err != nil {
		return nil, fmt.Errorf("inserting saved research: %w", err)
	}
	return s, nil
}

// ListSaved returns saved entries joined with their search, newest first.
func (db *DB) ListSaved(ctx context.Context, f SavedFilter) ([]SavedResearchEntry, error) {
	limit, offset := page(f.Limit, f.Offset)

	where := []string{"s.user_id = ?"}
	args := []any{userOrDefault(f.UserID)}
	if f.Folder != "" {
		where = append(where, "s.folder = ?")
		args = append(args, f.Folder)
	}
	args = append(args, limit, offset)

	rows, err := db.query(ctx, `
SELECT s.id, s.search_id, s.title, s.folder, s.notes, s.user_id, s.saved_at, s.updated_at,
       h.query, h.search_mode, h.summary, h.sources, h.citations, h.created_at
FROM saved_research s
JOIN search_history h ON h.id = s.search_id
WHERE `+strings.Join(where, " AND ")+`
ORDER BY s.saved_at DESC, s.id DESC
LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []SavedResearchEntry{}
	for rows.Next() {
		var e SavedResearchEntry
		var sources, citations string
		if err := rows.Scan(&e.ID, &e.SearchID, &e.Title, &e.Folder, &e.Notes, &e.UserID, &e.SavedAt, &e.UpdatedAt,
			&e.Query, &e.SearchMode, &e.Summary, &sources, &citations, &e.SearchedAt); err != nil {
			return nil, err
		}
		e.Sources = decodeSources(sources)
		e.Citations = decodeCitations(citations)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetSaved returns a single saved item by ID.
func (db *DB) GetSaved(ctx context.Context, id int64) (*SavedResearch, error) {
	var s SavedResearch
	err := db.queryRow(ctx,
		`SELECT id, search_id, title, folder, notes, user_id, saved_at, updated_at FROM saved_research WHERE id = ?`, id,
	).Scan(&s.ID, &s.SearchID, &s.Title, &s.Folder, &s.Notes, &s.UserID, &s.SavedAt, &s.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// UpdateSaved applies patch to the saved item and refreshes updated_at.
func (db *DB) UpdateSaved(ctx context.Context, id int64, patch SavedPatch) (*SavedResearch, error) {
	if patch.IsEmpty() {
		return nil, ErrNoFieldsToUpdate
	}

	var updates []string
	var args []any

	if nonBlank(patch.Title) {
		updates = append(updates, "title = ?")
		args = append(args, strings.TrimSpace(*patch.Title))
	}
	if nonBlank(patch.Folder) {
		updates = append(updates, "folder = ?")
		args = append(args, strings.TrimSpace(*patch.Folder))
	}
	if patch.Notes != nil {
		updates = append(updates, "notes = ?")
		args = append(args, *patch.Notes)
	}

	updates = append(updates, "updated_at = ?")
	args = append(args, db.timestamp(), id)

	res, err := db.exec(ctx,
		fmt.Sprintf("UPDATE saved_research SET %s WHERE id = ?", strings.Join(updates, ", ")),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("updating saved research: %w", err)
	}
	if err := affectOne(res); err != nil {
		return nil, err
	}
	return db.GetSaved(ctx, id)
}

// DeleteSaved removes a saved item.
func (db *DB) DeleteSaved(ctx context.Context, id int64) error {
	res, err := db.exec(ctx, "DELETE FROM saved_research WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting saved research: %w", err)
	}
	return affectOne(res)
}
