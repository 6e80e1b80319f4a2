package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned by the persistence layer when no row matches.
var ErrNotFound = errors.New("todo not found")

// Domain entity: one row of the todos table.
// Не зависит от Gin, Postgres, Redis.
type Todo struct {
	ID          int64
	Title       string
	Description *string
	Completed   bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TodoPatch is a partial update. Nil fields are left untouched.
type TodoPatch struct {
	Title       *string
	Description *string
	Completed   *bool
}

// Empty reports whether the patch carries no field at all.
func (p TodoPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil
}

// Status selects a subset of todos for listing.
type Status string

const (
	StatusAll       Status = ""
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
)

// ParseStatus maps the ?status= query value; anything unknown lists all todos.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusCompleted:
		return StatusCompleted
	case StatusPending:
		return StatusPending
	default:
		return StatusAll
	}
}
