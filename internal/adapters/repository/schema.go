package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		timezone      TEXT NOT NULL DEFAULT 'UTC',
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`ALTER TABLE users ADD COLUMN IF NOT EXISTS timezone TEXT NOT NULL DEFAULT 'UTC'`,
	`CREATE TABLE IF NOT EXISTS habit_documents (
		user_id    TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		data       JSONB NOT NULL,
		version    INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema creates the tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("repository: ensure schema: %w", err)
		}
	}
	return nil
}
