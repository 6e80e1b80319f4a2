package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"todoapi/internal/apperr"
	dom "todoapi/internal/domain"
	"todoapi/internal/repo"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ListCache is the read-through cache for list queries. *cache.TodoCache implements it.
// Lists are stored per generation; InvalidateAll moves to a new one.
type ListCache interface {
	Generation(ctx context.Context) (int64, error)
	GetList(ctx context.Context, gen int64, status dom.Status) ([]dom.Todo, error)
	SetList(ctx context.Context, gen int64, status dom.Status, list []dom.Todo) error
	InvalidateAll(ctx context.Context) error
}

type TodoService struct {
	repo  repo.TodoRepo
	cache ListCache
	log   *zap.Logger
	sf    singleflight.Group

	// stale is set when an invalidation failed; lists skip the cache until
	// a later invalidation succeeds.
	stale atomic.Bool
}

// NewTodoService creates a TodoService. If c is nil, caching is disabled.
func NewTodoService(r repo.TodoRepo, c ListCache, log *zap.Logger) *TodoService {
	if log == nil {
		log = zap.NewNop()
	}
	return &TodoService{repo: r, cache: c, log: log}
}

// List returns todos for the given status filter.
func (s *TodoService) List(ctx context.Context, status dom.Status) ([]dom.Todo, error) {
	if s.cache == nil || !s.cacheUsable(ctx) {
		return s.list(ctx, status)
	}
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.log.Warn("list cache generation unavailable", zap.Error(err))
		return s.list(ctx, status)
	}
	key := fmt.Sprintf("list:%d:%s", gen, status)
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		if list, err := s.cache.GetList(ctx, gen, status); err == nil && list != nil {
			return list, nil
		}
		list, err := s.list(ctx, status)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetList(ctx, gen, status, list); err != nil {
			s.log.Warn("list cache store failed", zap.Error(err))
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]dom.Todo), nil
}

func (s *TodoService) list(ctx context.Context, status dom.Status) ([]dom.Todo, error) {
	var (
		list []dom.Todo
		err  error
	)
	switch status {
	case dom.StatusCompleted:
		list, err = s.repo.FindCompleted(ctx)
	case dom.StatusPending:
		list, err = s.repo.FindPending(ctx)
	default:
		list, err = s.repo.FindAll(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return list, nil
}

func (s *TodoService) GetByID(ctx context.Context, id int64) (dom.Todo, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return dom.Todo{}, s.wrap("get todo", id, err)
	}
	return t, nil
}

// Create inserts a todo. An empty description is stored as NULL.
func (s *TodoService) Create(ctx context.Context, title string, desc *string, completed bool) (dom.Todo, error) {
	if desc != nil && *desc == "" {
		desc = nil
	}
	t, err := s.repo.Create(ctx, dom.Todo{
		Title:       title,
		Description: desc,
		Completed:   completed,
	})
	if err != nil {
		return dom.Todo{}, fmt.Errorf("create todo: %w", err)
	}
	s.invalidateCache(ctx)
	return t, nil
}

// Update applies patch to an existing todo.
func (s *TodoService) Update(ctx context.Context, id int64, patch dom.TodoPatch) (dom.Todo, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return dom.Todo{}, s.wrap("update todo", id, err)
	}
	t, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return dom.Todo{}, s.wrap("update todo", id, err)
	}
	s.invalidateCache(ctx)
	return t, nil
}

func (s *TodoService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return s.wrap("delete todo", id, err)
	}
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return s.wrap("delete todo", id, err)
	}
	if !removed {
		// Deleted concurrently between the lookup and the delete.
		return apperr.TodoNotFound(id, dom.ErrNotFound)
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *TodoService) wrap(op string, id int64, err error) error {
	if errors.Is(err, dom.ErrNotFound) {
		return apperr.TodoNotFound(id, err)
	}
	return fmt.Errorf("%s %d: %w", op, id, err)
}

func (s *TodoService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.stale.Store(true)
		s.log.Error("list cache invalidation failed, serving lists from database", zap.Error(err))
	}
}

// cacheUsable retries a pending invalidation and reports whether cached lists can be trusted.
func (s *TodoService) cacheUsable(ctx context.Context) bool {
	if !s.stale.Load() {
		return true
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		return false
	}
	s.stale.Store(false)
	s.log.Info("list cache invalidation recovered")
	return true
}
