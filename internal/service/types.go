// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"errors"
	"fmt"
)

// Task represents a single to-do item.
type Task struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// ErrNotFound is returned when the referenced task id does not exist.
var ErrNotFound = errors.New("task not found")

// ValidationError reports a request that failed input checks.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
