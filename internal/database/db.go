package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"todo-app/pkg/logger"
)

// Open creates the PostgreSQL connection pool and checks it is reachable.
func Open(ctx context.Context, databaseURL string, poolSize int) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// writers hold one connection for the advisory lock and need another to save
	poolSize = max(poolSize, 2)
	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(max(poolSize/2, 1))
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info(ctx, "Database pool initialized", "max_open", poolSize)
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS todos (
	id          BIGINT PRIMARY KEY CHECK (id > 0),
	position    INTEGER NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	completed   BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS todos_position_idx ON todos (position);
CREATE TABLE IF NOT EXISTS todo_counter (
	singleton BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
	value     BIGINT NOT NULL CHECK (value >= 0)
);`

// MigrateOrCreateSchema creates the todo tables if they do not exist yet.
func MigrateOrCreateSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	logger.Info(ctx, "Database schema ensured")
	return nil
}
