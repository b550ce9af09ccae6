package repo

import (
	"context"
	"sort"
	"sync"

	dom "github.com/birlikkoshan/todo-api/internal/domain"
)

// MemoryTodoRepo keeps todos in process memory. Used for tests and STORE_DRIVER=memory.
type MemoryTodoRepo struct {
	mu    sync.RWMutex
	next  int64
	todos map[int64]dom.Todo
}

func NewMemoryTodoRepo() *MemoryTodoRepo {
	return &MemoryTodoRepo{todos: make(map[int64]dom.Todo)}
}

func (r *MemoryTodoRepo) FindAll(_ context.Context) ([]dom.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]dom.Todo, 0, len(r.todos))
	for _, t := range r.todos {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID() < list[j].ID() })
	return list, nil
}

func (r *MemoryTodoRepo) FindByID(_ context.Context, id int64) (dom.Todo, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.todos[id]
	return t, ok, nil
}

func (r *MemoryTodoRepo) Save(_ context.Context, t dom.Todo) (dom.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	out := dom.ReconstructTodo(r.next, t.Title(), t.Completed())
	r.todos[r.next] = out
	return out, nil
}

func (r *MemoryTodoRepo) Update(_ context.Context, t dom.Todo) (dom.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.todos[t.ID()]; !ok {
		return dom.Todo{}, storageErr("update", ErrRecordMissing)
	}
	r.todos[t.ID()] = t
	return t, nil
}

func (r *MemoryTodoRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.todos[id]; !ok {
		return storageErr("delete", ErrRecordMissing)
	}
	delete(r.todos, id)
	return nil
}
