// Package repository is the row-oriented encoding of the todo Collection:
// one PostgreSQL row per todo plus a single counter row.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"todo-app/internal/models"
	"todo-app/internal/store"
	"todo-app/pkg/logger"
)

const insertBatchSize = 500

// advisoryLockKey names the transaction-scoped advisory lock every writer
// takes around load, mutate and save.
const advisoryLockKey int64 = 0x746f646f // "todo"

type TodoRepository struct {
	db *sql.DB
}

func NewTodoRepository(db *sql.DB) *TodoRepository {
	return &TodoRepository{db: db}
}

// Load returns the counter and every todo in insertion order.
func (r *TodoRepository) Load(ctx context.Context) (models.Collection, error) {
	c := models.EmptyCollection()

	err := r.db.QueryRowContext(ctx, `SELECT value FROM todo_counter WHERE singleton`).Scan(&c.Counter)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return models.Collection{}, unavailable(ctx, "load counter", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, description, completed FROM todos ORDER BY position`)
	if err != nil {
		return models.Collection{}, unavailable(ctx, "load todos", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t models.Todo
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Completed); err != nil {
			return models.Collection{}, fmt.Errorf("%w: scan todo: %v", store.ErrStorageCorrupt, err)
		}
		c.Todos = append(c.Todos, t)
	}
	if err := rows.Err(); err != nil {
		return models.Collection{}, unavailable(ctx, "iterate todos", err)
	}
	return c, nil
}

// Lock serializes writers across processes sharing the database. It holds
// the advisory lock in its own transaction, so it needs a second pool
// connection while Load and Save run.
func (r *TodoRepository) Lock(ctx context.Context) (func(), error) {
	// ctx only bounds the wait; a cancelled BeginTx context would roll back and release the lock
	tx, err := r.db.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		return nil, lockFailed(ctx, "begin lock", err)
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, advisoryLockKey); err != nil {
		tx.Rollback()
		return nil, lockFailed(ctx, "advisory lock", err)
	}
	return func() {
		// rollback ends the transaction and with it the lock
		if err := tx.Rollback(); err != nil {
			logger.Error(ctx, "Repository advisory unlock failed", "error", err)
		}
	}, nil
}

// Save replaces every row in one transaction. It refuses to move the counter
// backwards, which would mean another process committed newer ids since our load.
func (r *TodoRepository) Save(ctx context.Context, c models.Collection) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(ctx, "begin", err)
	}
	defer tx.Rollback()

	var stored int64
	err = tx.QueryRowContext(ctx, `SELECT value FROM todo_counter WHERE singleton FOR UPDATE`).Scan(&stored)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return unavailable(ctx, "lock counter", err)
	}
	if stored > c.Counter {
		return fmt.Errorf("%w: stored counter %d is ahead of %d", store.ErrStorageConflict, stored, c.Counter)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM todos`); err != nil {
		return unavailable(ctx, "clear todos", err)
	}
	for start := 0; start < len(c.Todos); start += insertBatchSize {
		end := min(start+insertBatchSize, len(c.Todos))
		if err := insertBatch(ctx, tx, c.Todos[start:end], start); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO todo_counter (singleton, value) VALUES (TRUE, $1)
		 ON CONFLICT (singleton) DO UPDATE SET value = EXCLUDED.value`, c.Counter); err != nil {
		return unavailable(ctx, "write counter", err)
	}

	if err := tx.Commit(); err != nil {
		return unavailable(ctx, "commit", err)
	}
	return nil
}

func insertBatch(ctx context.Context, tx *sql.Tx, todos []models.Todo, offset int) error {
	args := make([]any, 0, len(todos)*5)
	placeholders := make([]string, 0, len(todos))
	for i, t := range todos {
		placeholders = append(placeholders, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d)",
			5*i+1, 5*i+2, 5*i+3, 5*i+4, 5*i+5))
		args = append(args, t.ID, offset+i, t.Title, t.Description, t.Completed)
	}
	q := `INSERT INTO todos (id, position, title, description, completed) VALUES ` +
		strings.Join(placeholders, ",")
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return unavailable(ctx, "insert todos", err)
	}
	return nil
}

// lockFailed keeps a lock wait cut short by the context recognizable as such.
func lockFailed(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return unavailable(ctx, op, err)
}

func unavailable(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return err
	}
	logger.Error(ctx, "Repository "+op+" failed", "error", err)
	return fmt.Errorf("%w: %s: %v", store.ErrStorageUnavailable, op, err)
}

var (
	_ store.Backend = (*TodoRepository)(nil)
	_ store.Locker  = (*TodoRepository)(nil)
)
