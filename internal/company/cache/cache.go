// Package cache is the hot tier for resolved company insights. A cache hit
// short-circuits the whole aggregation pipeline, so implementations must make
// misses cheap and must surface backend trouble as sentinel.ErrUnavailable
// rather than inventing a miss silently: the caller decides how loudly to
// degrade.
package cache

import (
	"context"
	"time"

	"github.com/DEMONNN69/knowyourcompany/internal/company"
)

// Cache stores insights keyed by canonical company name.
type Cache interface {
	// Get returns the cached insight for key. sentinel.ErrNotFound on a
	// miss, sentinel.ErrUnavailable when the backend cannot answer.
	Get(ctx context.Context, key string) (*company.Insight, error)

	// Set stores the insight under key for ttl.
	Set(ctx context.Context, key string, insight *company.Insight, ttl time.Duration) error

	// Invalidate removes key. Removing an absent key is not an error.
	Invalidate(ctx context.Context, key string) error
}
