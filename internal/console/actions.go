// Package console is the terminal front end for the todo API: one-shot
// subcommands and an interactive menu.
package console

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"todo-app/internal/models"
	"todo-app/internal/store"
)

// API is what the console needs from the todo service; *client.Client satisfies it.
type API interface {
	List(ctx context.Context) ([]models.Todo, error)
	Get(ctx context.Context, id int64) (models.Todo, error)
	Create(ctx context.Context, title, description string) (models.Todo, error)
	Update(ctx context.Context, id int64, completed bool) (models.Todo, error)
	Delete(ctx context.Context, id int64) (models.Todo, error)
}

// result is the user-facing outcome of one action.
type result struct {
	lines  []string
	failed bool
}

func ok(lines ...string) result   { return result{lines: lines} }
func fail(lines ...string) result { return result{lines: lines, failed: true} }

func apiFailure(err error) result {
	return fail(fmt.Sprintf("🚨 Error communicating with API: %v", err))
}

func emptyTitle() result {
	return fail("❌ Error: Title cannot be empty.")
}

func invalidID() result {
	return fail("❌ Error: Invalid ID. Please enter a number.")
}

// parseID accepts positive integers only.
func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func addTodo(ctx context.Context, api API, title, description string) result {
	title = strings.TrimSpace(title)
	if title == "" {
		return emptyTitle()
	}
	todo, err := api.Create(ctx, title, strings.TrimSpace(description))
	if err != nil {
		return apiFailure(err)
	}
	return ok(fmt.Sprintf("🎉 Successfully added to-do item with ID: %d", todo.ID))
}

func listTodos(ctx context.Context, api API) result {
	todos, err := api.List(ctx)
	if err != nil {
		return apiFailure(err)
	}
	if len(todos) == 0 {
		return ok("📭 No to-do items yet.")
	}
	lines := []string{titleStyle.Render("~~~ Your To-Do List ~~~")}
	for _, t := range todos {
		lines = append(lines, todoLines(t)...)
	}
	lines = append(lines, mutedStyle.Render(summary(todos)))
	return ok(lines...)
}

func showTodo(ctx context.Context, api API, id int64) result {
	todo, err := api.Get(ctx, id)
	if err != nil {
		return idFailure(id, err)
	}
	return ok(todoLines(todo)...)
}

func setCompleted(ctx context.Context, api API, id int64, completed bool) result {
	if _, err := api.Update(ctx, id, completed); err != nil {
		return idFailure(id, err)
	}
	if completed {
		return ok(fmt.Sprintf("🎉 To-do item %d marked as complete.", id))
	}
	return ok(fmt.Sprintf("↩️ To-do item %d marked as pending.", id))
}

func removeTodo(ctx context.Context, api API, id int64) result {
	if _, err := api.Delete(ctx, id); err != nil {
		return idFailure(id, err)
	}
	return ok(fmt.Sprintf("🗑️ To-do item %d removed.", id))
}

func idFailure(id int64, err error) result {
	if errors.Is(err, store.ErrNotFound) {
		return fail(fmt.Sprintf("⚠️ Error: To-do item with ID %d not found.", id))
	}
	return apiFailure(err)
}

func todoLines(t models.Todo) []string {
	status := pendingStyle.Render("⏳")
	title := t.Title
	if t.Completed {
		status = successStyle.Render("✅")
		title = doneStyle.Render(t.Title)
	}
	lines := []string{fmt.Sprintf("%s ID: %d - %s", status, t.ID, title)}
	if t.Description != "" {
		lines = append(lines, fmt.Sprintf("    📝 Description: %s", t.Description))
	}
	return lines
}

func summary(todos []models.Todo) string {
	done := 0
	for _, t := range todos {
		if t.Completed {
			done++
		}
	}
	return fmt.Sprintf("%d done, %d pending, %d total", done, len(todos)-done, len(todos))
}
