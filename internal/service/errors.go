package service

import (
	"errors"
	"fmt"
)

// Service errors. Handlers map these to HTTP status codes.
var (
	ErrValidation   = errors.New("all fields are required")
	ErrConflict     = errors.New("user already exists")
	ErrUnauthorized = errors.New("invalid email or password")
	ErrNotFound     = errors.New("not found")
)

// ValidationError reports a rejected input field.
// It matches ErrValidation under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
