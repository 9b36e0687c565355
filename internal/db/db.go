package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/hpungsan/qdpx/internal/config"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// FileName is the index database file inside the base directory.
const FileName = "index.db"

// Init initializes the SQLite index at baseDir/index.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.qdpx.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	// Pragmas in the DSN apply to every pooled connection
	dbPath := filepath.Join(baseDir, FileName)
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: initial schema
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS projects (
		  id               TEXT PRIMARY KEY,
		  path             TEXT NOT NULL,
		  name             TEXT NOT NULL,
		  name_norm        TEXT NOT NULL,
		  origin           TEXT,
		  file_size        INTEGER NOT NULL,
		  checksum         TEXT NOT NULL,
		  code_count       INTEGER NOT NULL,
		  source_count     INTEGER NOT NULL,
		  selection_count  INTEGER NOT NULL,
		  coding_count     INTEGER NOT NULL,
		  snapshot         BLOB NOT NULL,
		  indexed_at       INTEGER NOT NULL,
		  deleted_at       INTEGER
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_projects_path
		ON projects(path)
		WHERE deleted_at IS NULL;

		CREATE INDEX IF NOT EXISTS idx_projects_indexed
		ON projects(indexed_at DESC)
		WHERE deleted_at IS NULL;

		CREATE TABLE IF NOT EXISTS codes (
		  project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		  ord         INTEGER NOT NULL,
		  guid        TEXT NOT NULL,
		  name        TEXT NOT NULL,
		  name_norm   TEXT NOT NULL,
		  path        TEXT NOT NULL,
		  depth       INTEGER NOT NULL,
		  codable     INTEGER NOT NULL,
		  color       TEXT,
		  usage       INTEGER NOT NULL,
		  PRIMARY KEY (project_id, ord)
		);

		CREATE INDEX IF NOT EXISTS idx_codes_name_norm
		ON codes(name_norm);

		CREATE TABLE IF NOT EXISTS sources (
		  project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		  ord         INTEGER NOT NULL,
		  guid        TEXT NOT NULL,
		  kind        TEXT NOT NULL,
		  name        TEXT,
		  media_path  TEXT,
		  selections  INTEGER NOT NULL,
		  codings     INTEGER NOT NULL,
		  PRIMARY KEY (project_id, ord)
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
