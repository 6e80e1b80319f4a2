// Package apperr holds the error kinds the HTTP layer knows how to render.
package apperr

import "fmt"

// ValidationError rejects malformed or missing client input (HTTP 400).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validation returns a *ValidationError with the given message.
func Validation(msg string) error {
	return &ValidationError{Message: msg}
}

// NotFoundError reports a referenced entity that does not exist (HTTP 404).
type NotFoundError struct {
	Message string
	Err     error
}

func (e *NotFoundError) Error() string { return e.Message }

func (e *NotFoundError) Unwrap() error { return e.Err }

// TodoNotFound builds the NotFoundError for a missing todo id, wrapping cause.
func TodoNotFound(id int64, cause error) error {
	return &NotFoundError{
		Message: fmt.Sprintf("Todo with ID %d does not exist", id),
		Err:     cause,
	}
}
