// Package storage provides the local automation target: mind map documents
// kept in a SQL database and served through the remote accessor interface.
// This file handles the general SQL database interfaces and schema.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"mindm/internal/log"
)

// DBDriver represents the type of database driver
type DBDriver string

const (
	SQLite DBDriver = "sqlite"
)

// Database interface defines common database operations
type Database interface {
	Open(ctx context.Context, dataSourceName string) error
	Close() error
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
	InitSchema(ctx context.Context) error
}

// NewDatabase creates a new Database instance based on the specified driver
func NewDatabase(driver DBDriver, logger *log.Logger) (Database, error) {
	switch driver {
	case SQLite:
		return &SQLiteDatabase{BaseDatabase: BaseDatabase{logger: logger}}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// BaseDatabase provides a base implementation of some Database methods
type BaseDatabase struct {
	db     *sql.DB
	logger *log.Logger
}

// WithTx runs fn in a transaction, committing when fn succeeds
func (b *BaseDatabase) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		b.logger.Error(ctx, "Failed to begin transaction", log.Fields{"error": err})
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			b.logger.Error(ctx, "Failed to rollback transaction", log.Fields{"error": rbErr})
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		b.logger.Error(ctx, "Failed to commit transaction", log.Fields{"error": err})
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Exec executes a query without returning any rows
func (b *BaseDatabase) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	b.logger.Debug(ctx, "Executing query", log.Fields{"query": query, "args": args})
	return b.db.ExecContext(ctx, query, args...)
}

// Query executes a query that returns rows
func (b *BaseDatabase) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	b.logger.Debug(ctx, "Querying", log.Fields{"query": query, "args": args})
	return b.db.QueryContext(ctx, query, args...)
}

// QueryRow executes a query that is expected to return at most one row
func (b *BaseDatabase) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return b.db.QueryRowContext(ctx, query, args...)
}

// InitSchema initializes the database schema
func (b *BaseDatabase) InitSchema(ctx context.Context) error {
	b.logger.Info(ctx, "Initializing database schema", nil)

	_, err := b.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			charttype TEXT NOT NULL,
			max_level INTEGER NOT NULL DEFAULT 0,
			background TEXT NOT NULL DEFAULT '',
			finalized BOOLEAN NOT NULL DEFAULT 0,
			created DATETIME NOT NULL,
			updated DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS topics (
			guid TEXT PRIMARY KEY,
			document_id INTEGER NOT NULL,
			parent_guid TEXT,
			position INTEGER NOT NULL,
			level INTEGER NOT NULL,
			text TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			image TEXT NOT NULL DEFAULT '',
			FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
		);
		CREATE INDEX IF NOT EXISTS topics_parent ON topics (parent_guid, position);

		CREATE TABLE IF NOT EXISTS topic_notes (
			topic_guid TEXT PRIMARY KEY,
			text TEXT NOT NULL DEFAULT '',
			xhtml TEXT NOT NULL DEFAULT '',
			rtf TEXT NOT NULL DEFAULT '',
			FOREIGN KEY (topic_guid) REFERENCES topics(guid) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS topic_links (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			topic_guid TEXT NOT NULL,
			text TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT '',
			target_guid TEXT NOT NULL DEFAULT '',
			FOREIGN KEY (topic_guid) REFERENCES topics(guid) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS topic_icons (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			topic_guid TEXT NOT NULL,
			text TEXT NOT NULL DEFAULT '',
			is_stock BOOLEAN NOT NULL DEFAULT 1,
			stock_index INTEGER NOT NULL DEFAULT 1,
			signature TEXT NOT NULL DEFAULT '',
			path TEXT NOT NULL DEFAULT '',
			icon_group TEXT NOT NULL DEFAULT '',
			FOREIGN KEY (topic_guid) REFERENCES topics(guid) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS topic_tags (
			topic_guid TEXT NOT NULL,
			tag TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (topic_guid, tag),
			FOREIGN KEY (topic_guid) REFERENCES topics(guid) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS relationships (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id INTEGER NOT NULL,
			guid_1 TEXT NOT NULL,
			guid_2 TEXT NOT NULL,
			label TEXT NOT NULL DEFAULT '',
			FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS map_icons (
			document_id INTEGER NOT NULL,
			signature TEXT NOT NULL,
			text TEXT NOT NULL DEFAULT '',
			path TEXT NOT NULL DEFAULT '',
			icon_group TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (document_id, signature),
			FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS tags (
			document_id INTEGER NOT NULL,
			tag TEXT NOT NULL,
			PRIMARY KEY (document_id, tag),
			FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS selection (
			topic_guid TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			FOREIGN KEY (topic_guid) REFERENCES topics(guid) ON DELETE CASCADE
		);
	`)
	if err != nil {
		b.logger.Error(ctx, "Failed to create tables", log.Fields{"error": err})
		return fmt.Errorf("failed to create tables: %w", err)
	}
	b.logger.Info(ctx, "Database schema initialized successfully", nil)
	return nil
}
