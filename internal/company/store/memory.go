package store

import (
	"context"
	"sync"

	"github.com/DEMONNN69/knowyourcompany/internal/company"
	"github.com/DEMONNN69/knowyourcompany/pkg/platform/sentinel"
)

// Memory is an in-process store for single-instance deployments and tests.
type Memory struct {
	mu       sync.RWMutex
	insights map[string]company.Insight
}

func NewMemory() *Memory {
	return &Memory{insights: make(map[string]company.Insight)}
}

func (m *Memory) FindByCanonicalName(_ context.Context, key string) (*company.Insight, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	insight, ok := m.insights[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &insight, nil
}

func (m *Memory) Save(_ context.Context, insight *company.Insight) error {
	if insight == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insights[insight.CanonicalName] = *insight
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.insights[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(m.insights, key)
	return nil
}
