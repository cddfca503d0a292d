package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/DEMONNN69/knowyourcompany/internal/company"
	"github.com/DEMONNN69/knowyourcompany/pkg/platform/sentinel"
)

const insightKeyPrefix = "company:"

// Redis is the shared cache tier for multi-instance deployments. Insights
// are stored as JSON with a per-key TTL, so expiry needs no sweeper.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) (*company.Insight, error) {
	payload, err := r.client.Get(ctx, insightKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %q: %w: %w", key, sentinel.ErrUnavailable, err)
	}

	var insight company.Insight
	if err := json.Unmarshal(payload, &insight); err != nil {
		// A corrupt entry is unreadable forever; drop it and report a miss.
		_ = r.client.Del(ctx, insightKeyPrefix+key).Err()
		return nil, sentinel.ErrNotFound
	}
	return &insight, nil
}

func (r *Redis) Set(ctx context.Context, key string, insight *company.Insight, ttl time.Duration) error {
	payload, err := json.Marshal(insight)
	if err != nil {
		return fmt.Errorf("cache marshal %q: %w", key, err)
	}
	if err := r.client.Set(ctx, insightKeyPrefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %q: %w: %w", key, sentinel.ErrUnavailable, err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, insightKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("cache invalidate %q: %w: %w", key, sentinel.ErrUnavailable, err)
	}
	return nil
}
