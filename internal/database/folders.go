package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// CreateFolder adds a folder for userID. A duplicate name returns ErrConflict.
func (db *DB) CreateFolder(ctx context.Context, userID, name string) (*Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("folder_name is required")
	}

	f := &Folder{FolderName: name, UserID: userOrDefault(userID), CreatedAt: db.timestamp()}
	err := db.queryRow(ctx,
		`INSERT INTO research_folders (folder_name, user_id, created_at) VALUES (?, ?, ?) RETURNING id`,
		f.FolderName, f.UserID, f.CreatedAt,
	).Scan(&f.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("folder %q: %w", name, ErrConflict)
		}
		return nil, fmt.Errorf("inserting folder: %w", err)
	}
	return f, nil
}

// ListFolders returns the folders of userID ordered by name.
func (db *DB) ListFolders(ctx context.Context, userID string) ([]Folder, error) {
	rows, err := db.query(ctx,
		`SELECT id, folder_name, user_id, created_at FROM research_folders WHERE user_id = ? ORDER BY folder_name`,
		userOrDefault(userID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	folders := []Folder{}
	for rows.Next() {
		var f Folder
		if err := rows.Scan(&f.ID, &f.FolderName, &f.UserID, &f.CreatedAt); err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}
