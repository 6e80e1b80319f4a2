package dto

import (
	"time"

	dom "todoapi/internal/domain"
)

// CreateTodoInput is the validated, trimmed body of POST /api/todos.
type CreateTodoInput struct {
	Title       string
	Description *string
	Completed   *bool
}

// UpdateTodoInput is the validated, trimmed body of PUT /api/todos/:id.
// Nil fields were absent from the request.
type UpdateTodoInput struct {
	Title       *string
	Description *string
	Completed   *bool
}

// Patch converts the input into a domain patch.
func (in UpdateTodoInput) Patch() dom.TodoPatch {
	return dom.TodoPatch{Title: in.Title, Description: in.Description, Completed: in.Completed}
}

// CreateTodoRequest documents the POST body; the validation middleware does the decoding.
type CreateTodoRequest struct {
	Title       string  `json:"title" example:"Buy milk"`
	Description *string `json:"description,omitempty" example:"2 liters"`
	Completed   *bool   `json:"completed,omitempty" example:"false"`
}

// UpdateTodoRequest documents the PUT body. At least one field is required.
type UpdateTodoRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

type TodoResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ListTodosResponse struct {
	Success bool           `json:"success"`
	Data    []TodoResponse `json:"data"`
	Count   int            `json:"count"`
}

type TodoEnvelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    TodoResponse `json:"data"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func TodoToResponse(t dom.Todo) TodoResponse {
	return TodoResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func TodosToResponses(list []dom.Todo) []TodoResponse {
	out := make([]TodoResponse, len(list))
	for i := range list {
		out[i] = TodoToResponse(list[i])
	}
	return out
}
