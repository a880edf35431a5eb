package service

import "strings"

// ValidationError carries the batch of user-facing messages produced by a
// use-case. Every rule that fails contributes one message; the controller
// maps the whole batch to a 400 response.
type ValidationError struct {
	Errors []string
}

// NewValidationError creates a ValidationError from one or more messages
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Errors: messages}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}
