package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"tasklist/internal/logging"
	"tasklist/internal/service"
	"tasklist/internal/store"
	"tasklist/pkg/mq"
)

// Topics published after a mutation commits.
const (
	TopicCreated    = "tasks.created"
	TopicUpdated    = "tasks.updated"
	TopicCompleted  = "tasks.completed"
	TopicIncomplete = "tasks.incomplete"
	TopicDeleted    = "tasks.deleted"
)

// Event is the JSON payload of every task topic. Deleted events carry only
// the id.
type Event struct {
	Op   string       `json:"op"`
	Task service.Task `json:"task"`
	At   time.Time    `json:"at"`
}

// Manager is the backend implementation of service.Service.
type Manager struct {
	st     *store.Store
	pub    mq.Publisher
	logger *log.Logger
	now    func() time.Time
}

var _ service.Service = (*Manager)(nil)

type Option func(*Manager)

// WithPublisher sends an Event for each committed mutation.
func WithPublisher(p mq.Publisher) Option { return func(m *Manager) { m.pub = p } }

func WithLogger(l *log.Logger) Option { return func(m *Manager) { m.logger = l } }

func NewManager(st *store.Store, opts ...Option) *Manager {
	m := &Manager{st: st, pub: mq.Noop{}, logger: logging.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) ListTasks(ctx context.Context) ([]service.Task, error) {
	return m.st.ListAll(ctx)
}

func (m *Manager) GetTask(ctx context.Context, id int64) (service.Task, error) {
	t, err := m.st.Get(ctx, id)
	return t, mapErr(id, err)
}

func (m *Manager) CreateTask(ctx context.Context, description string) error {
	_, err := m.Create(ctx, description)
	return err
}

// Create inserts a task and returns the stored record.
func (m *Manager) Create(ctx context.Context, description string) (service.Task, error) {
	if err := ValidateDescription(description); err != nil {
		return service.Task{}, err
	}
	t, err := m.st.Insert(ctx, description)
	if err != nil {
		return service.Task{}, err
	}
	m.publish(TopicCreated, "create", t)
	return t, nil
}

func (m *Manager) UpdateTask(ctx context.Context, id int64, description string) error {
	if err := ValidateDescription(description); err != nil {
		return err
	}
	t, err := m.st.UpdateDescription(ctx, id, description)
	if err != nil {
		return mapErr(id, err)
	}
	m.publish(TopicUpdated, "update", t)
	return nil
}

func (m *Manager) SetCompleted(ctx context.Context, id int64, completed bool) error {
	t, err := m.st.SetCompleted(ctx, id, completed)
	if err != nil {
		return mapErr(id, err)
	}
	if completed {
		m.publish(TopicCompleted, "complete", t)
	} else {
		m.publish(TopicIncomplete, "incomplete", t)
	}
	return nil
}

func (m *Manager) DeleteTask(ctx context.Context, id int64) error {
	if err := m.st.Delete(ctx, id); err != nil {
		return mapErr(id, err)
	}
	m.publish(TopicDeleted, "delete", service.Task{ID: id})
	return nil
}

// publish never fails the caller: the row is already committed.
func (m *Manager) publish(topic, op string, t service.Task) {
	payload, err := json.Marshal(Event{Op: op, Task: t, At: m.now().UTC()})
	if err != nil {
		m.logger.Error("encode task event", "topic", topic, "err", err)
		return
	}
	if err := m.pub.Publish(topic, payload); err != nil {
		m.logger.Warn("publish task event", "topic", topic, "id", t.ID, "err", err)
	}
}

// ValidateDescription rejects empty and whitespace-only descriptions.
func ValidateDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return &service.ValidationError{Field: "description", Reason: "must not be empty"}
	}
	return nil
}

func mapErr(id int64, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("task %d: %w", id, service.ErrNotFound)
	}
	return err
}
