package tui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/birlikkoshan/todo-api/internal/client"
	"github.com/birlikkoshan/todo-api/internal/dto"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNotFound = &client.APIError{Status: http.StatusNotFound, Message: "not found"}

type fakeAPI struct {
	todos   []dto.TodoResponse
	next    int64
	calls   []string
	listErr error
}

func (f *fakeAPI) List(context.Context) ([]dto.TodoResponse, error) {
	f.calls = append(f.calls, "list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]dto.TodoResponse(nil), f.todos...), nil
}

func (f *fakeAPI) Create(_ context.Context, title string) (dto.TodoResponse, error) {
	f.calls = append(f.calls, "create "+title)
	f.next++
	t := dto.TodoResponse{ID: f.next, Title: title}
	f.todos = append(f.todos, t)
	return t, nil
}

func (f *fakeAPI) SetCompleted(_ context.Context, id int64, completed bool) (dto.TodoResponse, error) {
	f.calls = append(f.calls, fmt.Sprintf("complete %d %t", id, completed))
	for i := range f.todos {
		if f.todos[i].ID == id {
			f.todos[i].Completed = completed
			return f.todos[i], nil
		}
	}
	return dto.TodoResponse{}, errNotFound
}

func (f *fakeAPI) Rename(_ context.Context, id int64, title string) (dto.TodoResponse, error) {
	f.calls = append(f.calls, fmt.Sprintf("rename %d %s", id, title))
	for i := range f.todos {
		if f.todos[i].ID == id {
			f.todos[i].Title = title
			return f.todos[i], nil
		}
	}
	return dto.TodoResponse{}, errNotFound
}

func (f *fakeAPI) Delete(_ context.Context, id int64) error {
	f.calls = append(f.calls, fmt.Sprintf("delete %d", id))
	for i := range f.todos {
		if f.todos[i].ID == id {
			f.todos = append(f.todos[:i], f.todos[i+1:]...)
			return nil
		}
	}
	return errNotFound
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	enter = tea.KeyMsg{Type: tea.KeyEnter}
)

// drain executes API commands and feeds their messages back until the chain ends.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for i := 0; cmd != nil && i < 10; i++ {
		msg := cmd()
		switch msg.(type) {
		case loadedMsg, changedMsg, errMsg:
		default:
			return m
		}
		next, c := m.Update(msg)
		m, cmd = next.(Model), c
	}
	return m
}

func press(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func loaded(t *testing.T, api *fakeAPI) Model {
	t.Helper()
	m := New(api, time.Second)
	return drain(t, m, m.Init())
}

func seeded() *fakeAPI {
	return &fakeAPI{
		next: 2,
		todos: []dto.TodoResponse{
			{ID: 1, Title: "buy milk"},
			{ID: 2, Title: "walk dog", Completed: true},
		},
	}
}

func TestModel_LoadRendersList(t *testing.T) {
	m := loaded(t, seeded())

	view := m.View()
	assert.Contains(t, view, "buy milk")
	assert.Contains(t, view, "walk dog")
	assert.Contains(t, view, boxChecked)
	assert.Contains(t, view, "Total 2")
}

func TestModel_SpaceTogglesSelected(t *testing.T) {
	api := seeded()
	m := loaded(t, api)

	m, cmd := press(m, space)
	m = drain(t, m, cmd)

	assert.Equal(t, []string{"list", "complete 1 true", "list"}, api.calls)
	assert.True(t, api.todos[0].Completed)
	assert.Contains(t, m.View(), "completed #1")
}

func TestModel_DeleteSelected(t *testing.T) {
	api := seeded()
	m := loaded(t, api)

	m, cmd := press(m, runes("d"))
	m = drain(t, m, cmd)

	assert.Contains(t, api.calls, "delete 1")
	require.Len(t, api.todos, 1)
	assert.NotContains(t, m.View(), "buy milk")
}

func TestModel_AddTodo(t *testing.T) {
	api := &fakeAPI{}
	m := loaded(t, api)

	m, _ = press(m, runes("a"))
	require.True(t, m.adding)

	m, _ = press(m, enter)
	assert.True(t, m.adding)
	assert.Contains(t, m.View(), "title cannot be empty")

	m, _ = press(m, runes("  file taxes "))
	m, cmd := press(m, enter)
	assert.False(t, m.adding)
	m = drain(t, m, cmd)

	assert.Contains(t, api.calls, "create file taxes")
	assert.Contains(t, m.View(), "file taxes")
	assert.Contains(t, m.View(), "added #1")
}

func TestModel_EscCancelsAdd(t *testing.T) {
	api := &fakeAPI{}
	m := loaded(t, api)

	m, _ = press(m, runes("a"))
	m, _ = press(m, runes("x"))
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.False(t, m.adding)
	assert.Nil(t, cmd)
	assert.Equal(t, []string{"list"}, api.calls)
}

func TestModel_ShowsErrors(t *testing.T) {
	api := &fakeAPI{listErr: errors.New("connection refused")}
	m := loaded(t, api)

	assert.Contains(t, m.View(), "connection refused")

	api.listErr = nil
	m, cmd := press(m, runes("r"))
	m = drain(t, m, cmd)
	assert.NotContains(t, m.View(), "connection refused")
}

func TestModel_Quit(t *testing.T) {
	m := loaded(t, &fakeAPI{})

	_, cmd := press(m, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_EditRenamesSelected(t *testing.T) {
	api := seeded()
	m := loaded(t, api)

	m, _ = press(m, runes("e"))
	require.True(t, m.editing)
	assert.Equal(t, "buy milk", m.ti.Value())
	assert.Contains(t, m.View(), "Edit todo #1")

	m, _ = press(m, runes(" and eggs"))
	m, cmd := press(m, enter)
	assert.False(t, m.editing)
	m = drain(t, m, cmd)

	assert.Contains(t, api.calls, "rename 1 buy milk and eggs")
	assert.Contains(t, m.View(), "buy milk and eggs")
	assert.Contains(t, m.View(), "renamed #1")
}

func TestModel_EditRejectsEmptyTitle(t *testing.T) {
	api := seeded()
	m := loaded(t, api)

	m, _ = press(m, runes("e"))
	m.ti.SetValue("   ")
	m, cmd := press(m, enter)

	assert.Nil(t, cmd)
	assert.True(t, m.editing)
	assert.Contains(t, m.View(), "title cannot be empty")
	assert.Equal(t, []string{"list"}, api.calls)
}

func TestModel_RemovedElsewhereReloads(t *testing.T) {
	api := seeded()
	m := loaded(t, api)
	api.todos = api.todos[1:]

	m, cmd := press(m, space)
	m = drain(t, m, cmd)

	assert.Nil(t, m.err, "a 404 is not shown as an error")
	assert.Contains(t, m.View(), "todo was removed elsewhere")
	assert.NotContains(t, m.View(), "buy milk")
	assert.Equal(t, "list", api.calls[len(api.calls)-1])
}
