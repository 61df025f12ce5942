package console

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func keys(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var enter = tea.KeyMsg{Type: tea.KeyEnter}

// send feeds msg to the model and runs any resulting API call synchronously.
func send(t *testing.T, m menuModel, msg tea.Msg) menuModel {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(menuModel)
	if cmd != nil && m.busy {
		next, _ = m.Update(cmd())
		m = next.(menuModel)
	}
	return m
}

func output(m menuModel) string { return strings.Join(m.output.lines, "\n") }

func TestMenu_AddAndList(t *testing.T) {
	api := newAPI(t)
	m := newMenu(context.Background(), api)

	m = send(t, m, keys("1"))
	if m.state != stateTitle {
		t.Fatalf("state = %v, want title prompt", m.state)
	}
	m = send(t, m, keys("Buy milk"))
	m = send(t, m, enter)
	if m.state != stateDescription {
		t.Fatalf("state = %v, want description prompt", m.state)
	}
	m = send(t, m, keys("2 liters"))
	m = send(t, m, enter)
	if m.state != stateMenu || !strings.Contains(output(m), "Successfully added to-do item with ID: 1") {
		t.Fatalf("state = %v output = %q", m.state, output(m))
	}

	todos, _ := api.List(context.Background())
	if len(todos) != 1 || todos[0].Title != "Buy milk" || todos[0].Description != "2 liters" {
		t.Fatalf("todos = %+v", todos)
	}

	m = send(t, m, keys("2"))
	if !strings.Contains(output(m), "ID: 1 - Buy milk") {
		t.Errorf("list output = %q", output(m))
	}
	if !strings.Contains(m.View(), "Buy milk") {
		t.Error("view does not show the list")
	}
}

func TestMenu_EmptyTitleRejected(t *testing.T) {
	api := newAPI(t)
	m := newMenu(context.Background(), api)
	m = send(t, m, keys("1"))
	m = send(t, m, keys("   "))
	m = send(t, m, enter)

	if m.state != stateMenu || !m.output.failed || !strings.Contains(output(m), "Title cannot be empty.") {
		t.Errorf("state = %v output = %q", m.state, output(m))
	}
	todos, _ := api.List(context.Background())
	if len(todos) != 0 {
		t.Errorf("nothing should be created, got %+v", todos)
	}
}

func TestMenu_CompleteAndRemove(t *testing.T) {
	api := newAPI(t, "first", "second")
	m := newMenu(context.Background(), api)

	m = send(t, m, keys("3"))
	m = send(t, m, keys("2"))
	m = send(t, m, enter)
	if !strings.Contains(output(m), "To-do item 2 marked as complete.") {
		t.Errorf("complete output = %q", output(m))
	}
	if todo, _ := api.Get(context.Background(), 2); !todo.Completed {
		t.Error("todo 2 not completed")
	}

	m = send(t, m, keys("4"))
	m = send(t, m, keys("1"))
	m = send(t, m, enter)
	if !strings.Contains(output(m), "To-do item 1 removed.") {
		t.Errorf("remove output = %q", output(m))
	}

	m = send(t, m, keys("4"))
	m = send(t, m, keys("9999"))
	m = send(t, m, enter)
	if !m.output.failed || !strings.Contains(output(m), "To-do item with ID 9999 not found.") {
		t.Errorf("missing id output = %q", output(m))
	}
}

func TestMenu_InvalidInput(t *testing.T) {
	m := newMenu(context.Background(), newAPI(t))

	m = send(t, m, keys("7"))
	if !strings.Contains(output(m), "Invalid choice") {
		t.Errorf("output = %q", output(m))
	}

	m = send(t, m, keys("3"))
	m = send(t, m, keys("abc"))
	m = send(t, m, enter)
	if m.state != stateMenu || !strings.Contains(output(m), "Invalid ID. Please enter a number.") {
		t.Errorf("state = %v output = %q", m.state, output(m))
	}
}

func TestMenu_EscReturnsToMenu(t *testing.T) {
	m := newMenu(context.Background(), newAPI(t))
	m = send(t, m, keys("1"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.state != stateMenu {
		t.Errorf("state = %v, want menu", m.state)
	}
}

func TestMenu_Exit(t *testing.T) {
	m := newMenu(context.Background(), newAPI(t))
	next, cmd := m.Update(keys("5"))
	m = next.(menuModel)
	if !m.quitting || cmd == nil {
		t.Fatal("expected quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if !strings.Contains(m.View(), "Goodbye") {
		t.Errorf("view = %q", m.View())
	}
}
