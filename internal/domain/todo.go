package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is the kind of every field-level rule violation.
var ErrValidation = errors.New("validation error")

var ErrEmptyTitle = fmt.Errorf("%w: title must not be empty", ErrValidation)

// Todo is the domain entity. It does not depend on Gin, Postgres or Redis.
// A zero id means the todo has not been persisted yet.
type Todo struct {
	id        int64
	title     string
	completed bool
}

// NewTodo builds an unsaved todo with a trimmed title.
func NewTodo(title string) (Todo, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return Todo{}, err
	}
	return Todo{title: title}, nil
}

// ReconstructTodo rehydrates a stored todo. It skips validation and must only be
// used with data read back from a store.
func ReconstructTodo(id int64, title string, completed bool) Todo {
	return Todo{id: id, title: title, completed: completed}
}

func (t Todo) ID() int64       { return t.id }
func (t Todo) HasID() bool     { return t.id != 0 }
func (t Todo) Title() string   { return t.title }
func (t Todo) Completed() bool { return t.completed }

// Rename applies the same rule as NewTodo; on error the todo is left unchanged.
func (t *Todo) Rename(title string) error {
	title, err := normalizeTitle(title)
	if err != nil {
		return err
	}
	t.title = title
	return nil
}

func (t *Todo) MarkComplete()   { t.completed = true }
func (t *Todo) MarkIncomplete() { t.completed = false }
func (t *Todo) Toggle()         { t.completed = !t.completed }

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	return title, nil
}
