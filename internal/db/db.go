package db

import (
	"context"
	"fmt"
	"log/slog"

	_ "github.com/glebarez/go-sqlite"
	"github.com/jmoiron/sqlx"
)

// SQLiteConnect opens the SQLite database at dbPath. Use ":memory:" for a
// throwaway database.
func SQLiteConnect(ctx context.Context, dbPath string) (*sqlx.DB, error) {
	pool, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:" shared.
	pool.SetMaxOpenConns(1)

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}
	slog.InfoContext(ctx, "Connected to sqlite database", "db.path", dbPath)
	return pool, nil
}

// InitializeSchema creates the document tables if they don't exist.
func InitializeSchema(ctx context.Context, DB *sqlx.DB) error {
	documentSchema := `
	CREATE TABLE IF NOT EXISTS documents (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		body TEXT NOT NULL,
		UNIQUE (collection, id)
	);`

	if _, err := DB.ExecContext(ctx, documentSchema); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}

	keySchema := `
	CREATE TABLE IF NOT EXISTS document_keys (
		collection TEXT NOT NULL,
		field TEXT NOT NULL,
		value TEXT NOT NULL,
		id TEXT NOT NULL,
		PRIMARY KEY (collection, field, value)
	);`

	if _, err := DB.ExecContext(ctx, keySchema); err != nil {
		return fmt.Errorf("failed to create document_keys table: %w", err)
	}

	slog.InfoContext(ctx, "SQLite schema verified.")
	return nil
}
