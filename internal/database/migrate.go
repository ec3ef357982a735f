package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// getSchemaVersion reads the applied schema version: PRAGMA user_version
// on SQLite, the schema_version table on PostgreSQL.
func getSchemaVersion(conn *sql.DB, d Dialect) (int, error) {
	var version int
	if d == Postgres {
		if _, err := conn.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
			return 0, fmt.Errorf("creating schema_version: %w", err)
		}
		err := conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
		if err != nil {
			return 0, fmt.Errorf("reading schema version: %w", err)
		}
		return version, nil
	}

	if err := conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// migrate brings the database schema up to the latest version.
func (db *DB) migrate() error {
	current, err := getSchemaVersion(db.conn, db.dialect)
	if err != nil {
		return err
	}

	latest := latestVersion()
	if current >= latest {
		return nil
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		slog.Info("applying migration", "version", m.Version, "description", m.Description, "dialect", db.dialect.String())

		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if err := m.Up(tx, db.dialect); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if db.dialect == Postgres {
			if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES ($1)", m.Version); err != nil {
				tx.Rollback()
				return fmt.Errorf("recording version %d: %w", m.Version, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}

		// Set user_version outside the transaction (modernc/sqlite requirement).
		// Safe: if we crash here, the idempotent DDL lets the migration re-run.
		if db.dialect == SQLite {
			if _, err := db.conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
				return fmt.Errorf("setting version %d: %w", m.Version, err)
			}
		}
	}

	return nil
}
