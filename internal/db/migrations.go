package db

import (
	"database/sql"
	"fmt"
)

// Base schema - uses Snowflake IDs (no AUTOINCREMENT)
const baseSchema = `
CREATE TABLE IF NOT EXISTS submissions (
  id INTEGER PRIMARY KEY,
  text TEXT NOT NULL,
  created_at TEXT NOT NULL
);
`

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(baseSchema); err != nil {
		return fmt.Errorf("migrate base schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func runMigrations(db *sql.DB) error {
	// Migration 1: listing pages over the primary key, the old created_at index is unused
	if _, err := db.Exec(`DROP INDEX IF EXISTS idx_submissions_created_at`); err != nil {
		return fmt.Errorf("drop idx_submissions_created_at: %w", err)
	}

	// Migration 2: enforce the text bound at the storage level for rows written by other tools
	ok, err := hasTrigger(db, "submissions_text_bound")
	if err != nil {
		return fmt.Errorf("check submissions_text_bound trigger: %w", err)
	}
	if !ok {
		if _, err := db.Exec(`
			CREATE TRIGGER submissions_text_bound BEFORE INSERT ON submissions
			WHEN length(NEW.text) < 1 OR length(NEW.text) > 255
			BEGIN
			  SELECT RAISE(ABORT, 'submission text out of bounds');
			END;
		`); err != nil {
			return fmt.Errorf("create submissions_text_bound trigger: %w", err)
		}
	}

	return nil
}

func hasTrigger(db *sql.DB, name string) (bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'trigger' AND name = ?`, name).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
