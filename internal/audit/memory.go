package audit

import (
	"context"
	"sync"
)

const memoryMaxEvents = 1024

// Memory keeps recent events in a bounded in-process buffer. Used when no
// broker is configured, and by tests asserting what the pipeline emitted.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Publish(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	if len(m.events) > memoryMaxEvents {
		m.events = m.events[len(m.events)-memoryMaxEvents:]
	}
	return nil
}

// Events returns a copy of the buffered events in publish order.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

func (m *Memory) Close() error { return nil }
