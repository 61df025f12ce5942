package console

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type menuState int

const (
	stateMenu menuState = iota
	stateTitle
	stateDescription
	stateID
)

type idAction int

const (
	actionComplete idAction = iota
	actionRemove
)

// resultMsg carries the outcome of an API call back into Update.
type resultMsg result

type menuModel struct {
	ctx    context.Context
	api    API
	state  menuState
	action idAction
	input  textinput.Model

	pendingTitle string
	output       result
	busy         bool
	quitting     bool
}

func newMenu(ctx context.Context, api API) menuModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200
	return menuModel{ctx: ctx, api: api, input: ti}
}

// RunMenu starts the interactive menu and blocks until the user exits.
func RunMenu(ctx context.Context, api API) error {
	_, err := tea.NewProgram(newMenu(ctx, api), tea.WithContext(ctx)).Run()
	return err
}

func (m menuModel) Init() tea.Cmd { return nil }

func (m menuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		m.busy = false
		m.output = result(msg)
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		if m.state == stateMenu {
			return m.chooseOption(msg.String())
		}
		switch msg.String() {
		case "esc":
			return m.backToMenu(result{}), nil
		case "enter":
			return m.submit()
		}
	}
	if m.state == stateMenu {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m menuModel) chooseOption(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "1":
		return m.prompt(stateTitle, "What do you want to do today?")
	case "2":
		m.busy = true
		return m, m.call(func(ctx context.Context) result { return listTodos(ctx, m.api) })
	case "3":
		m.action = actionComplete
		return m.prompt(stateID, "ID to mark as complete")
	case "4":
		m.action = actionRemove
		return m.prompt(stateID, "ID to remove")
	case "5", "q", "esc":
		m.quitting = true
		return m, tea.Quit
	}
	m.output = fail("🚫 Invalid choice. Please enter a number between 1 and 5.")
	return m, nil
}

func (m menuModel) submit() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())
	switch m.state {
	case stateTitle:
		if value == "" {
			return m.backToMenu(emptyTitle()), nil
		}
		m.pendingTitle = value
		return m.prompt(stateDescription, "Description (optional)")
	case stateDescription:
		title := m.pendingTitle
		m = m.backToMenu(result{})
		m.busy = true
		return m, m.call(func(ctx context.Context) result { return addTodo(ctx, m.api, title, value) })
	case stateID:
		id, valid := parseID(value)
		if !valid {
			return m.backToMenu(invalidID()), nil
		}
		action := m.action
		m = m.backToMenu(result{})
		m.busy = true
		return m, m.call(func(ctx context.Context) result {
			if action == actionRemove {
				return removeTodo(ctx, m.api, id)
			}
			return setCompleted(ctx, m.api, id, true)
		})
	}
	return m, nil
}

func (m menuModel) prompt(s menuState, placeholder string) (tea.Model, tea.Cmd) {
	m.state = s
	m.output = result{}
	m.input.SetValue("")
	m.input.Placeholder = placeholder
	return m, m.input.Focus()
}

func (m menuModel) backToMenu(out result) menuModel {
	m.state = stateMenu
	m.output = out
	m.pendingTitle = ""
	m.input.SetValue("")
	m.input.Blur()
	return m
}

func (m menuModel) call(fn func(ctx context.Context) result) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg { return resultMsg(fn(ctx)) }
}

func (m menuModel) View() string {
	if m.quitting {
		return "👋 Exiting To-Do App. Goodbye! 👋\n"
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("✨~~~ To-Do App Menu ~~~✨"))
	b.WriteString("\n")
	b.WriteString(strings.Join([]string{
		"1. 📝 Add a new to-do",
		"2. 📋 List all to-dos",
		"3. ✅ Mark a to-do as complete",
		"4. ❌ Remove a to-do",
		"5. 👋 Exit",
	}, "\n"))
	b.WriteString("\n" + mutedStyle.Render(rule) + "\n")

	switch m.state {
	case stateTitle:
		b.WriteString("✍️ Enter to-do title:\n" + m.input.View() + "\n")
	case stateDescription:
		b.WriteString("💬 Enter description (optional):\n" + m.input.View() + "\n")
	case stateID:
		if m.action == actionRemove {
			b.WriteString("🗑️ Enter the ID of the to-do to remove:\n")
		} else {
			b.WriteString("✨ Enter the ID of the to-do to mark as complete:\n")
		}
		b.WriteString(m.input.View() + "\n")
	default:
		b.WriteString("👉 Enter your choice (1-5)\n")
	}

	if m.busy {
		b.WriteString(mutedStyle.Render("working...") + "\n")
	}
	if len(m.output.lines) > 0 {
		body := strings.Join(m.output.lines, "\n")
		if m.output.failed {
			body = errorStyle.Render(body)
		}
		b.WriteString("\n" + panelStyle.Render(body) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("enter: submit • esc: back • ctrl+c: quit") + "\n")
	return b.String()
}
