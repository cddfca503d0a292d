package cache

import (
	"context"
	"time"

	"github.com/DEMONNN69/knowyourcompany/internal/company"
	"github.com/DEMONNN69/knowyourcompany/pkg/platform/sentinel"
)

// Noop is used when caching is disabled: every read is a miss and writes are
// discarded, so the pipeline always consults the store.
type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) Get(context.Context, string) (*company.Insight, error) {
	return nil, sentinel.ErrNotFound
}

func (Noop) Set(context.Context, string, *company.Insight, time.Duration) error { return nil }

func (Noop) Invalidate(context.Context, string) error { return nil }
