// Package repotest provides an in-memory repo.TodoRepo for tests of the layers above SQL.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	dom "todoapi/internal/domain"
)

// MemoryTodoRepo keeps todos in a map and mimics the ordering of the SQL queries.
type MemoryTodoRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]dom.Todo
	now    func() time.Time

	// Err, when set, is returned by every method.
	Err error
}

func NewMemoryTodoRepo() *MemoryTodoRepo {
	return &MemoryTodoRepo{rows: map[int64]dom.Todo{}, now: monotonicClock()}
}

// monotonicClock returns strictly increasing timestamps so ordering by time is deterministic.
func monotonicClock() func() time.Time {
	var last time.Time
	return func() time.Time {
		t := time.Now().UTC()
		if !t.After(last) {
			t = last.Add(time.Microsecond)
		}
		last = t
		return t
	}
}

func (r *MemoryTodoRepo) FindAll(ctx context.Context) ([]dom.Todo, error) {
	return r.filter(nil, byCreatedDesc)
}

func (r *MemoryTodoRepo) FindCompleted(ctx context.Context) ([]dom.Todo, error) {
	done := true
	return r.filter(&done, byUpdatedDesc)
}

func (r *MemoryTodoRepo) FindPending(ctx context.Context) ([]dom.Todo, error) {
	done := false
	return r.filter(&done, byCreatedDesc)
}

func (r *MemoryTodoRepo) FindByID(ctx context.Context, id int64) (dom.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return dom.Todo{}, r.Err
	}
	t, ok := r.rows[id]
	if !ok {
		return dom.Todo{}, dom.ErrNotFound
	}
	return t, nil
}

func (r *MemoryTodoRepo) Create(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return dom.Todo{}, r.Err
	}
	r.nextID++
	now := r.now()
	t.ID = r.nextID
	t.CreatedAt = now
	t.UpdatedAt = now
	r.rows[t.ID] = t
	return t, nil
}

func (r *MemoryTodoRepo) Update(ctx context.Context, id int64, patch dom.TodoPatch) (dom.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return dom.Todo{}, r.Err
	}
	t, ok := r.rows[id]
	if !ok {
		return dom.Todo{}, dom.ErrNotFound
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		d := *patch.Description
		t.Description = &d
	}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
	}
	t.UpdatedAt = r.now()
	r.rows[id] = t
	return t, nil
}

func (r *MemoryTodoRepo) Delete(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	if _, ok := r.rows[id]; !ok {
		return false, nil
	}
	delete(r.rows, id)
	return true, nil
}

// Truncate drops all rows and resets the id sequence.
func (r *MemoryTodoRepo) Truncate(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = map[int64]dom.Todo{}
	r.nextID = 0
	return nil
}

func (r *MemoryTodoRepo) filter(completed *bool, less func(a, b dom.Todo) bool) ([]dom.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	list := []dom.Todo{}
	for _, t := range r.rows {
		if completed == nil || t.Completed == *completed {
			list = append(list, t)
		}
	}
	sort.Slice(list, func(i, j int) bool { return less(list[i], list[j]) })
	return list, nil
}

func byCreatedDesc(a, b dom.Todo) bool { return a.CreatedAt.After(b.CreatedAt) }
func byUpdatedDesc(a, b dom.Todo) bool { return a.UpdatedAt.After(b.UpdatedAt) }
