package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	dom "github.com/birlikkoshan/todo-api/internal/domain"
	"github.com/birlikkoshan/todo-api/internal/dto"
	"github.com/birlikkoshan/todo-api/internal/repo"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
)

var ErrNotFound = errors.New("not found")

// ListCache stores the rendered list between writes. Failures are logged and
// never fail the request.
type ListCache interface {
	GetList(ctx context.Context) ([]dto.TodoResponse, error)
	SetList(ctx context.Context, list []dto.TodoResponse) error
	Invalidate(ctx context.Context) error
}

// TodoService holds no state besides its dependencies and is safe for
// concurrent use.
type TodoService struct {
	repo  repo.TodoRepo
	cache ListCache
	sf    singleflight.Group

	// cacheMu orders cache fills against invalidations; gen counts writes.
	cacheMu sync.Mutex
	gen     uint64
}

// NewTodoService creates a TodoService. If c is nil, caching is disabled.
func NewTodoService(r repo.TodoRepo, c ListCache) *TodoService {
	return &TodoService{repo: r, cache: c}
}

func (s *TodoService) ListAll(ctx context.Context) ([]dto.TodoResponse, error) {
	if s.cache == nil {
		return s.loadList(ctx)
	}
	v, err, _ := s.sf.Do("list", func() (interface{}, error) {
		list, err := s.cache.GetList(ctx)
		if err != nil {
			log.Warn("list cache read failed", "err", err)
		}
		if list != nil {
			return list, nil
		}
		gen := s.generation()
		list, err = s.loadList(ctx)
		if err != nil {
			return nil, err
		}
		s.fillCache(ctx, gen, list)
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]dto.TodoResponse), nil
}

func (s *TodoService) GetByID(ctx context.Context, id int64) (dto.TodoResponse, error) {
	t, err := s.find(ctx, id)
	if err != nil {
		return dto.TodoResponse{}, err
	}
	return toResponse(t), nil
}

func (s *TodoService) Create(ctx context.Context, req dto.CreateTodoRequest) (dto.TodoResponse, error) {
	t, err := dom.NewTodo(req.Title)
	if err != nil {
		return dto.TodoResponse{}, err
	}
	if req.Completed {
		t.MarkComplete()
	}
	saved, err := s.repo.Save(ctx, t)
	if err != nil {
		return dto.TodoResponse{}, err
	}
	s.invalidateCache(ctx)
	return toResponse(saved), nil
}

// Update applies only the fields present in req.
func (s *TodoService) Update(ctx context.Context, id int64, req dto.UpdateTodoRequest) (dto.TodoResponse, error) {
	t, err := s.find(ctx, id)
	if err != nil {
		return dto.TodoResponse{}, err
	}
	if title, ok := req.Title.Get(); ok {
		if err := t.Rename(title); err != nil {
			return dto.TodoResponse{}, err
		}
	}
	if completed, ok := req.Completed.Get(); ok {
		if completed {
			t.MarkComplete()
		} else {
			t.MarkIncomplete()
		}
	}
	updated, err := s.repo.Update(ctx, t)
	if err != nil {
		return dto.TodoResponse{}, err
	}
	s.invalidateCache(ctx)
	return toResponse(updated), nil
}

func (s *TodoService) Delete(ctx context.Context, id int64) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *TodoService) find(ctx context.Context, id int64) (dom.Todo, error) {
	t, found, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return dom.Todo{}, err
	}
	if !found {
		return dom.Todo{}, fmt.Errorf("todo %d: %w", id, ErrNotFound)
	}
	return t, nil
}

func (s *TodoService) loadList(ctx context.Context) ([]dto.TodoResponse, error) {
	list, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TodoResponse, len(list))
	for i := range list {
		out[i] = toResponse(list[i])
	}
	return out, nil
}

func (s *TodoService) generation() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.gen
}

// fillCache stores list unless a write landed since it was read at gen.
// Writes from other processes are only bounded by the cache TTL.
func (s *TodoService) fillCache(ctx context.Context, gen uint64, list []dto.TodoResponse) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.gen != gen {
		return
	}
	if err := s.cache.SetList(ctx, list); err != nil {
		log.Warn("list cache write failed", "err", err)
	}
}

func (s *TodoService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.gen++
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Warn("list cache invalidation failed", "err", err)
	}
}

func toResponse(t dom.Todo) dto.TodoResponse {
	return dto.TodoResponse{
		ID:        t.ID(),
		Title:     t.Title(),
		Completed: t.Completed(),
	}
}
