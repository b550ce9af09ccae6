// Package tui is a terminal front end for the todo API built on bubbletea.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/birlikkoshan/todo-api/internal/client"
	"github.com/birlikkoshan/todo-api/internal/dto"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// API is the subset of the HTTP client the UI drives.
type API interface {
	List(ctx context.Context) ([]dto.TodoResponse, error)
	Create(ctx context.Context, title string) (dto.TodoResponse, error)
	SetCompleted(ctx context.Context, id int64, completed bool) (dto.TodoResponse, error)
	Rename(ctx context.Context, id int64, title string) (dto.TodoResponse, error)
	Delete(ctx context.Context, id int64) error
}

type (
	loadedMsg  []dto.TodoResponse
	changedMsg string
	errMsg     struct{ err error }
)

type listItem struct {
	todo dto.TodoResponse
}

func (i listItem) Title() string       { return i.todo.Title }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.todo.Title }

type itemDelegate struct{}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	box := mutedStyle.Render(boxUnchecked)
	text := it.todo.Title
	if it.todo.Completed {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintf(w, "%s%s %s", prefix, box, text)
}

type Model struct {
	api     API
	timeout time.Duration

	list     list.Model
	ti       textinput.Model
	adding   bool
	editing  bool
	editID   int64
	inputErr string

	status string
	err    error
}

func New(api API, timeout time.Duration) Model {
	l := list.New(nil, itemDelegate{}, 80, 20)
	l.Title = titleStyle.Render("Todos")
	l.SetShowHelp(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("todo", "todos")

	bindings := []key.Binding{
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	}
	l.AdditionalShortHelpKeys = func() []key.Binding { return bindings }
	l.AdditionalFullHelpKeys = func() []key.Binding { return bindings }

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "New todo title..."
	ti.CharLimit = 200

	return Model{api: api, timeout: timeout, list: l, ti: ti}
}

func (m Model) Init() tea.Cmd { return m.load() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h := msg.Height - 4
		if m.inputActive() {
			h -= 2
		}
		m.list.SetSize(msg.Width-4, h)
		return m, nil
	case loadedMsg:
		m.err = nil
		m.list.Title = header(msg)
		items := make([]list.Item, 0, len(msg))
		for _, t := range msg {
			items = append(items, listItem{todo: t})
		}
		return m, m.list.SetItems(items)
	case changedMsg:
		m.status = string(msg)
		return m, m.load()
	case errMsg:
		m.err = msg.err
		return m, nil
	}

	if m.inputActive() {
		return m.updateInput(msg)
	}

	if km, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch km.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.status = "reloading"
			return m, m.load()
		case "a":
			m.adding = true
			m.inputErr = ""
			m.ti.SetValue("")
			m.ti.Placeholder = "New todo title..."
			return m, m.ti.Focus()
		case "e":
			if it, ok := m.selected(); ok {
				m.editing = true
				m.editID = it.todo.ID
				m.inputErr = ""
				m.ti.SetValue(it.todo.Title)
				m.ti.CursorEnd()
				m.ti.Placeholder = "Edit todo title..."
				return m, m.ti.Focus()
			}
			return m, nil
		case " ":
			if it, ok := m.selected(); ok {
				return m, m.setCompleted(it.todo.ID, !it.todo.Completed)
			}
			return m, nil
		case "d":
			if it, ok := m.selected(); ok {
				return m, m.remove(it.todo.ID)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "enter":
			title := strings.TrimSpace(m.ti.Value())
			if title == "" {
				m.inputErr = "title cannot be empty"
				return m, nil
			}
			var cmd tea.Cmd
			if m.editing {
				cmd = m.rename(m.editID, title)
			} else {
				cmd = m.create(title)
			}
			m.closeInput()
			return m, cmd
		case "esc":
			m.closeInput()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m Model) inputActive() bool { return m.adding || m.editing }

func (m *Model) closeInput() {
	m.adding = false
	m.editing = false
	m.inputErr = ""
	m.ti.SetValue("")
	m.ti.Blur()
}

func (m Model) View() string {
	content := m.list.View()
	if m.inputActive() {
		title := "Add todo"
		if m.editing {
			title = fmt.Sprintf("Edit todo #%d", m.editID)
		}
		if m.inputErr != "" {
			title += ": " + errorStyle.Render(m.inputErr)
		}
		content += "\n" + panelStyle.Render(title+"\n"+m.ti.View())
	}
	switch {
	case m.err != nil:
		content += "\n" + errorStyle.Render("✖ "+m.err.Error())
	case m.status != "":
		content += "\n" + mutedStyle.Render(m.status)
	}
	return panelStyle.Render(content)
}

func (m Model) selected() (listItem, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	return it, ok
}

func (m Model) call(fn func(ctx context.Context) (tea.Msg, error)) tea.Cmd {
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		msg, err := fn(ctx)
		if client.IsNotFound(err) {
			return changedMsg("todo was removed elsewhere")
		}
		if err != nil {
			return errMsg{err: err}
		}
		return msg
	}
}

func (m Model) load() tea.Cmd {
	return m.call(func(ctx context.Context) (tea.Msg, error) {
		todos, err := m.api.List(ctx)
		return loadedMsg(todos), err
	})
}

func (m Model) create(title string) tea.Cmd {
	return m.call(func(ctx context.Context) (tea.Msg, error) {
		t, err := m.api.Create(ctx, title)
		return changedMsg(fmt.Sprintf("added #%d", t.ID)), err
	})
}

func (m Model) setCompleted(id int64, completed bool) tea.Cmd {
	return m.call(func(ctx context.Context) (tea.Msg, error) {
		_, err := m.api.SetCompleted(ctx, id, completed)
		verb := "reopened"
		if completed {
			verb = "completed"
		}
		return changedMsg(fmt.Sprintf("%s #%d", verb, id)), err
	})
}

func (m Model) rename(id int64, title string) tea.Cmd {
	return m.call(func(ctx context.Context) (tea.Msg, error) {
		_, err := m.api.Rename(ctx, id, title)
		return changedMsg(fmt.Sprintf("renamed #%d", id)), err
	})
}

func (m Model) remove(id int64) tea.Cmd {
	return m.call(func(ctx context.Context) (tea.Msg, error) {
		err := m.api.Delete(ctx, id)
		return changedMsg(fmt.Sprintf("deleted #%d", id)), err
	})
}

func header(todos []dto.TodoResponse) string {
	var done int
	for _, t := range todos {
		if t.Completed {
			done++
		}
	}
	return fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), len(todos)-done,
		accentStyle.Render("Total"), len(todos),
	)
}

// Run starts the UI in the alternate screen and blocks until the user quits.
func Run(api API, timeout time.Duration) error {
	_, err := tea.NewProgram(New(api, timeout), tea.WithAltScreen()).Run()
	return err
}
