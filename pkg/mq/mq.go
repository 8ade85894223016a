// Package mq is a minimal publish/subscribe seam. Memory delivers in-process;
// a broker-backed Publisher can replace it without touching callers.
package mq

import (
	"errors"
	"strings"
	"sync"
)

type Publisher interface {
	Publish(topic string, payload []byte) error
}

type Subscriber interface {
	Subscribe(topic string, handler func([]byte) error) error
}

type Noop struct{}

func (Noop) Publish(topic string, payload []byte) error               { return nil }
func (Noop) Subscribe(topic string, handler func([]byte) error) error { return nil }

// Memory delivers each message synchronously to every matching handler.
// A subscription topic ending in ".*" matches any topic with that prefix.
type Memory struct {
	mu   sync.RWMutex
	subs map[string][]func([]byte) error
}

func NewMemory() *Memory {
	return &Memory{subs: make(map[string][]func([]byte) error)}
}

func (m *Memory) Subscribe(topic string, handler func([]byte) error) error {
	if topic == "" {
		return errors.New("mq: empty topic")
	}
	if handler == nil {
		return errors.New("mq: nil handler")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[topic] = append(m.subs[topic], handler)
	return nil
}

// Publish returns the joined handler errors; every handler runs regardless.
func (m *Memory) Publish(topic string, payload []byte) error {
	m.mu.RLock()
	var handlers []func([]byte) error
	for pattern, hs := range m.subs {
		if matches(pattern, topic) {
			handlers = append(handlers, hs...)
		}
	}
	m.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h(payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func matches(pattern, topic string) bool {
	if prefix, ok := strings.CutSuffix(pattern, ".*"); ok {
		return strings.HasPrefix(topic, prefix+".")
	}
	return pattern == topic
}
