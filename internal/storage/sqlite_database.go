package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"mindm/internal/log"
)

// sqlitePragmas are applied to every new connection, in order.
var sqlitePragmas = []string{
	"PRAGMA synchronous = NORMAL",
	"PRAGMA cache_size = 5000",
	"PRAGMA busy_timeout = 5000",
}

// SQLiteDatabase implements the Database interface for SQLite
type SQLiteDatabase struct {
	BaseDatabase
}

// Open opens the document database at path, creating its directory and
// file when missing. Foreign keys are enforced and the journal runs in WAL
// mode.
func (s *SQLiteDatabase) Open(ctx context.Context, path string) error {
	s.logger.Debug(ctx, "Opening document database", log.Fields{"path": path})

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory '%s': %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return fmt.Errorf("failed to open document database: %w", err)
	}
	// One writer keeps the pragmas and transactions on a single connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range sqlitePragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			s.logger.Error(ctx, "Failed to configure document database", log.Fields{"pragma": pragma, "error": err})
			return fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to verify database connection: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the connection to the SQLite database
func (s *SQLiteDatabase) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close document database: %w", err)
	}
	s.db = nil
	return nil
}
