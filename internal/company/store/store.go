// Package store is the durable tier for company insights. Unlike the cache,
// entries never expire here: the aggregator decides whether a persisted
// insight is fresh enough to serve or stale enough to refetch.
package store

import (
	"context"

	"github.com/DEMONNN69/knowyourcompany/internal/company"
)

// Store persists insights keyed by canonical company name.
type Store interface {
	// FindByCanonicalName returns the persisted insight for key, or
	// sentinel.ErrNotFound when the company has never been resolved.
	FindByCanonicalName(ctx context.Context, key string) (*company.Insight, error)

	// Save upserts the insight under its canonical name.
	Save(ctx context.Context, insight *company.Insight) error

	// Delete removes a persisted insight. Deleting an absent key returns
	// sentinel.ErrNotFound.
	Delete(ctx context.Context, key string) error
}
