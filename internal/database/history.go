package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/TobiSchelling/researchlens/internal/research"
)

const historyColumns = "id, query, search_mode, summary, sources, citations, user_id, created_at, updated_at"

// CreateHistory stores a search result and returns the new record.
func (db *DB) CreateHistory(ctx context.Context, in HistoryInput) (*HistoryRecord, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, research.ErrEmptyQuery
	}
	mode := in.SearchMode
	if mode == "" {
		mode = string(research.ModeGeneral)
	}

	sources, err := encodeJSON(in.Sources)
	if err != nil {
		return nil, err
	}
	citations, err := encodeJSON(in.Citations)
	if err != nil {
		return nil, err
	}

	now := db.timestamp()
	rec := &HistoryRecord{
		Query:      query,
		SearchMode: mode,
		Summary:    in.Summary,
		Sources:    nonNil(in.Sources),
		Citations:  nonNil(in.Citations),
		UserID:     userOrDefault(in.UserID),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = db.queryRow(ctx,
		`INSERT INTO search_history (query, search_mode, summary, sources, citations, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		rec.Query, rec.SearchMode, rec.Summary, sources, citations, rec.UserID, now, now,
	).Scan(&rec.ID)
	if err != nil {
		return nil, fmt.Errorf("inserting search history: %w", err)
	}
	return rec, nil
}

// GetHistory returns a single record by ID.
func (db *DB) GetHistory(ctx context.Context, id int64) (*HistoryRecord, error) {
	row := db.queryRow(ctx, "SELECT "+historyColumns+" FROM search_history WHERE id = ?", id)
	rec, err := scanHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListHistory returns records for a user, newest first.
func (db *DB) ListHistory(ctx context.Context, f HistoryFilter) ([]HistoryRecord, error) {
	limit, offset := page(f.Limit, f.Offset)

	where := []string{"user_id = ?"}
	args := []any{userOrDefault(f.UserID)}
	if f.Mode != "" {
		where = append(where, "search_mode = ?")
		args = append(args, f.Mode)
	}
	args = append(args, limit, offset)

	rows, err := db.query(ctx,
		"SELECT "+historyColumns+" FROM search_history WHERE "+strings.Join(where, " AND ")+
			" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []HistoryRecord{}
	for rows.Next() {
		rec, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// UpdateHistory applies patch to the record and refreshes updated_at.
func (db *DB) UpdateHistory(ctx context.Context, id int64, patch HistoryPatch) (*HistoryRecord, error) {
	if patch.IsEmpty() {
		return nil, ErrNoFieldsToUpdate
	}

	var updates []string
	var args []any

	if nonBlank(patch.Query) {
		updates = append(updates, "query = ?")
		args = append(args, strings.TrimSpace(*patch.Query))
	}
	if patch.SearchMode != nil {
		updates = append(updates, "search_mode = ?")
		args = append(args, *patch.SearchMode)
	}
	if patch.Summary != nil {
		updates = append(updates, "summary = ?")
		args = append(args, *patch.Summary)
	}
	if patch.Sources != nil {
		data, err := encodeJSON(*patch.Sources)
		if err != nil {
			return nil, err
		}
		updates = append(updates, "sources = ?")
		args = append(args, data)
	}
	if patch.Citations != nil {
		data, err := encodeJSON(*patch.Citations)
		if err != nil {
			return nil, err
		}
		updates = append(updates, "citations = ?")
		args = append(args, data)
	}

	updates = append(updates, "updated_at = ?")
	args = append(args, db.timestamp(), id)

	res, err := db.exec(ctx,
		fmt.Sprintf("UPDATE search_history SET %s WHERE id = ?", strings.Join(updates, ", ")),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("updating search history: %w", err)
	}
	if err := affectOne(res); err != nil {
		return nil, err
	}
	return db.GetHistory(ctx, id)
}

// DeleteHistory removes a record.
func (db *DB) DeleteHistory(ctx context.Context, id int64) error {
	res, err := db.exec(ctx, "DELETE FROM search_history WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting search history: %w", err)
	}
	return affectOne(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHistory(s scanner) (*HistoryRecord, error) {
	var rec HistoryRecord
	var sources, citations string
	if err := s.Scan(&rec.ID, &rec.Query, &rec.SearchMode, &rec.Summary, &sources, &citations,
		&rec.UserID, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.Sources = decodeSources(sources)
	rec.Citations = decodeCitations(citations)
	return &rec, nil
}

func encodeJSON[T any](items []T) (string, error) {
	data, err := json.Marshal(nonNil(items))
	if err != nil {
		return "", fmt.Errorf("encoding json column: %w", err)
	}
	return string(data), nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// Malformed JSON columns decode as empty lists rather than failing the read.
func decodeSources(data string) []research.SourceItem {
	var out []research.SourceItem
	if err := json.Unmarshal([]byte(data), &out); err != nil || out == nil {
		return []research.SourceItem{}
	}
	return out
}

func decodeCitations(data string) []research.Citation {
	var out []research.Citation
	if err := json.Unmarshal([]byte(data), &out); err != nil || out == nil {
		return []research.Citation{}
	}
	return out
}
