// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Service defines the task operations shared by the backend manager,
// the HTTP client and the frontend views.
type Service interface {
	// ListTasks returns every task in id order.
	ListTasks(ctx context.Context) ([]Task, error)

	// GetTask returns the task with the given id or ErrNotFound.
	GetTask(ctx context.Context, id int64) (Task, error)

	// CreateTask adds a new, incomplete task.
	CreateTask(ctx context.Context, description string) error

	// UpdateTask overwrites the description of an existing task.
	UpdateTask(ctx context.Context, id int64, description string) error

	// SetCompleted marks a task complete or incomplete.
	SetCompleted(ctx context.Context, id int64, completed bool) error

	// DeleteTask permanently removes a task.
	DeleteTask(ctx context.Context, id int64) error
}
