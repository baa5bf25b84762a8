package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the database connection to the local SQLite task store
type DB struct {
	*sql.DB
}

// New opens (creating if necessary) the SQLite store at the given path and
// runs schema migration. An empty path defaults to taskdeck.db in the
// working directory; ":memory:" opens a throwaway in-memory store.
func New(path string) (*DB, error) {
	if path == "" {
		path = "taskdeck.db"
	}

	if err := ensureDir(path); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The store is single-process; one connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &DB{db}, nil
}

// ensureDir creates the parent directory for a file-backed store.
func ensureDir(path string) error {
	if strings.Contains(path, ":memory:") || strings.Contains(path, "mode=memory") {
		return nil
	}
	dir := filepath.Dir(strings.TrimPrefix(path, "file:"))
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

func migrate(db *sql.DB) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS tasks (
			id              TEXT PRIMARY KEY,
			content         TEXT NOT NULL,
			list_id         TEXT NOT NULL DEFAULT '',
			status          TEXT NOT NULL,
			metadata        TEXT NOT NULL DEFAULT '{}',
			recurrence      TEXT,
			series_id       TEXT NOT NULL DEFAULT '',
			occurrence_date TEXT NOT NULL DEFAULT '',
			due_at          TIMESTAMP,
			reminder_at     TIMESTAMP,
			created_at      TIMESTAMP NOT NULL,
			updated_at      TIMESTAMP NOT NULL,
			completed_at    TIMESTAMP
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_series_occurrence
			ON tasks (series_id, occurrence_date)
			WHERE series_id != '' AND occurrence_date != '';

		CREATE INDEX IF NOT EXISTS idx_tasks_series ON tasks (series_id);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
