// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"tasklist/internal/service"
)

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu     sync.RWMutex
	tasks  []service.Task
	nextID int64

	// Error injection for testing
	ListErr   error
	GetErr    error
	CreateErr error
	UpdateErr error
	SetErr    error
	DeleteErr error

	// Calls records mutating calls as "create:<desc>", "update:<id>:<desc>",
	// "complete:<id>", "incomplete:<id>", "delete:<id>".
	Calls []string
}

var _ service.Service = (*FakeService)(nil)

func NewFakeService() *FakeService {
	return &FakeService{nextID: 1}
}

// AddTask seeds a task and returns its id.
func (f *FakeService) AddTask(description string, completed bool) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.tasks = append(f.tasks, service.Task{ID: id, Description: description, Completed: completed})
	return id
}

// Tasks returns a copy of the current tasks.
func (f *FakeService) Tasks() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]service.Task(nil), f.tasks...)
}

func (f *FakeService) ListTasks(ctx context.Context) ([]service.Task, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return f.Tasks(), nil
}

func (f *FakeService) GetTask(ctx context.Context, id int64) (service.Task, error) {
	if f.GetErr != nil {
		return service.Task{}, f.GetErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	i := f.index(id)
	if i < 0 {
		return service.Task{}, fmt.Errorf("task %d: %w", id, service.ErrNotFound)
	}
	return f.tasks[i], nil
}

func (f *FakeService) CreateTask(ctx context.Context, description string) error {
	if f.CreateErr != nil {
		return f.CreateErr
	}
	if strings.TrimSpace(description) == "" {
		return &service.ValidationError{Field: "description", Reason: "must not be empty"}
	}
	f.AddTask(description, false)
	f.record("create:" + description)
	return nil
}

func (f *FakeService) UpdateTask(ctx context.Context, id int64, description string) error {
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	return f.mutate(id, fmt.Sprintf("update:%d:%s", id, description), func(t *service.Task) {
		t.Description = description
	})
}

func (f *FakeService) SetCompleted(ctx context.Context, id int64, completed bool) error {
	if f.SetErr != nil {
		return f.SetErr
	}
	op := "incomplete"
	if completed {
		op = "complete"
	}
	return f.mutate(id, fmt.Sprintf("%s:%d", op, id), func(t *service.Task) {
		t.Completed = completed
	})
}

func (f *FakeService) DeleteTask(ctx context.Context, id int64) error {
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return fmt.Errorf("task %d: %w", id, service.ErrNotFound)
	}
	f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	f.Calls = append(f.Calls, fmt.Sprintf("delete:%d", id))
	return nil
}

func (f *FakeService) mutate(id int64, call string, fn func(*service.Task)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return fmt.Errorf("task %d: %w", id, service.ErrNotFound)
	}
	fn(&f.tasks[i])
	f.Calls = append(f.Calls, call)
	return nil
}

func (f *FakeService) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, call)
}

// index must be called with f.mu held.
func (f *FakeService) index(id int64) int {
	for i, t := range f.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
