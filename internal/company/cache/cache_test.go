package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/DEMONNN69/knowyourcompany/internal/company"
	"github.com/DEMONNN69/knowyourcompany/internal/company/cache"
	"github.com/DEMONNN69/knowyourcompany/pkg/platform/sentinel"
)

func sampleInsight(key string) *company.Insight {
	score := 62.5
	return &company.Insight{
		Name:          "Acme Corp",
		CanonicalName: key,
		Score:         &score,
		Risk:          company.RiskMedium,
		Flags:         []string{"limited_signals"},
		LastCheckedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

type MemoryCacheSuite struct {
	suite.Suite
	cache *cache.Memory
}

func TestMemoryCacheSuite(t *testing.T) {
	suite.Run(t, new(MemoryCacheSuite))
}

func (s *MemoryCacheSuite) SetupTest() {
	s.cache = cache.NewMemory(time.Minute)
}

func (s *MemoryCacheSuite) TestSetAndGet() {
	ctx := context.Background()
	insight := sampleInsight("acme corp")

	s.Require().NoError(s.cache.Set(ctx, "acme corp", insight, time.Minute))

	got, err := s.cache.Get(ctx, "acme corp")
	s.Require().NoError(err)
	s.Equal(insight.CanonicalName, got.CanonicalName)
	s.Require().NotNil(got.Score)
	s.InDelta(62.5, *got.Score, 1e-9)
	s.Equal(company.RiskMedium, got.Risk)
}

func (s *MemoryCacheSuite) TestMissIsNotFound() {
	_, err := s.cache.Get(context.Background(), "unknown")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryCacheSuite) TestEntryExpires() {
	ctx := context.Background()
	s.Require().NoError(s.cache.Set(ctx, "acme corp", sampleInsight("acme corp"), 15*time.Millisecond))

	time.Sleep(30 * time.Millisecond)

	_, err := s.cache.Get(ctx, "acme corp")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryCacheSuite) TestInvalidate() {
	ctx := context.Background()
	s.Require().NoError(s.cache.Set(ctx, "acme corp", sampleInsight("acme corp"), time.Minute))

	s.Require().NoError(s.cache.Invalidate(ctx, "acme corp"))

	_, err := s.cache.Get(ctx, "acme corp")
	s.ErrorIs(err, sentinel.ErrNotFound)

	// Invalidating again must stay quiet.
	s.NoError(s.cache.Invalidate(ctx, "acme corp"))
}

func TestNoopCache(t *testing.T) {
	ctx := context.Background()
	noop := cache.NewNoop()

	if err := noop.Set(ctx, "acme corp", sampleInsight("acme corp"), time.Minute); err != nil {
		t.Fatalf("noop set: %v", err)
	}
	if _, err := noop.Get(ctx, "acme corp"); !errors.Is(err, sentinel.ErrNotFound) {
		t.Fatalf("noop get: want ErrNotFound, got %v", err)
	}
	if err := noop.Invalidate(ctx, "acme corp"); err != nil {
		t.Fatalf("noop invalidate: %v", err)
	}
}
