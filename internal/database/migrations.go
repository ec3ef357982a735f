package database

import (
	"database/sql"
	"strings"
)

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx, d Dialect) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx, d Dialect) error {
			return execAll(tx, d, `
CREATE TABLE IF NOT EXISTS search_history (
    id {{id}},
    query TEXT NOT NULL,
    search_mode TEXT NOT NULL DEFAULT 'general',
    summary TEXT NOT NULL DEFAULT '',
    sources TEXT NOT NULL DEFAULT '[]',
    citations TEXT NOT NULL DEFAULT '[]',
    user_id TEXT NOT NULL DEFAULT 'anonymous',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS saved_research (
    id {{id}},
    search_id BIGINT NOT NULL,
    title TEXT NOT NULL,
    folder TEXT NOT NULL DEFAULT 'General',
    notes TEXT NOT NULL DEFAULT '',
    user_id TEXT NOT NULL DEFAULT 'anonymous',
    saved_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS research_folders (
    id {{id}},
    folder_name TEXT NOT NULL,
    user_id TEXT NOT NULL DEFAULT 'anonymous',
    created_at TEXT NOT NULL,
    UNIQUE (user_id, folder_name)
)`)
		},
	},
	{
		Version:     2,
		Description: "list indexes",
		Up: func(tx *sql.Tx, d Dialect) error {
			return execAll(tx, d, `
CREATE INDEX IF NOT EXISTS idx_search_history_user_created ON search_history(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_saved_research_user_folder ON saved_research(user_id, folder, saved_at);
CREATE INDEX IF NOT EXISTS idx_saved_research_search ON saved_research(search_id)`)
		},
	},
}

// execAll runs semicolon separated DDL, expanding dialect specific tokens.
func execAll(tx *sql.Tx, d Dialect, ddl string) error {
	idCol := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if d == Postgres {
		idCol = "BIGSERIAL PRIMARY KEY"
	}
	ddl = strings.ReplaceAll(ddl, "{{id}}", idCol)

	for _, stmt := range strings.Split(ddl, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
