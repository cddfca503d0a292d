package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/DEMONNN69/knowyourcompany/internal/company"
	"github.com/DEMONNN69/knowyourcompany/pkg/platform/sentinel"
)

const memoryCleanupInterval = 10 * time.Minute

// Memory is an in-process cache for single-instance deployments and tests.
// Expired entries are swept in the background; reads never see them either
// way because go-cache checks expiry on access.
type Memory struct {
	entries *gocache.Cache
}

func NewMemory(defaultTTL time.Duration) *Memory {
	return &Memory{entries: gocache.New(defaultTTL, memoryCleanupInterval)}
}

func (m *Memory) Get(_ context.Context, key string) (*company.Insight, error) {
	value, ok := m.entries.Get(key)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	insight, ok := value.(company.Insight)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &insight, nil
}

func (m *Memory) Set(_ context.Context, key string, insight *company.Insight, ttl time.Duration) error {
	m.entries.Set(key, *insight, ttl)
	return nil
}

func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.entries.Delete(key)
	return nil
}
