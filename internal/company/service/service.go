// Package service orchestrates company resolution: canonicalize the name,
// try the cache, try the store under the staleness policy, and only then fan
// out to the connectors, score the evidence, and write the result back
// through both tiers.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/DEMONNN69/knowyourcompany/internal/audit"
	"github.com/DEMONNN69/knowyourcompany/internal/company"
	"github.com/DEMONNN69/knowyourcompany/internal/company/cache"
	"github.com/DEMONNN69/knowyourcompany/internal/company/connectors"
	"github.com/DEMONNN69/knowyourcompany/internal/company/metrics"
	"github.com/DEMONNN69/knowyourcompany/internal/company/scoring"
	"github.com/DEMONNN69/knowyourcompany/internal/company/store"
	"github.com/DEMONNN69/knowyourcompany/internal/platform/config"
	dErrors "github.com/DEMONNN69/knowyourcompany/pkg/domain-errors"
	"github.com/DEMONNN69/knowyourcompany/pkg/platform/sentinel"
)

// Clock lets tests control the staleness policy.
type Clock func() time.Time

// Service is the aggregator. All reads and refreshes go through it.
type Service struct {
	cache      cache.Cache
	store      store.Store
	connectors []connectors.Connector
	audit      audit.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger

	cacheTTL        time.Duration
	stalenessWindow time.Duration
	resolveDeadline time.Duration

	clock Clock
}

// Option configures optional Service behavior.
type Option func(*Service)

// WithClock replaces the time source.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func New(
	c cache.Cache,
	st store.Store,
	conns []connectors.Connector,
	publisher audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg config.AggregatorConfig,
	opts ...Option,
) *Service {
	s := &Service{
		cache:           c,
		store:           st,
		connectors:      conns,
		audit:           publisher,
		metrics:         m,
		logger:          logger,
		cacheTTL:        cfg.CacheTTL,
		stalenessWindow: cfg.StalenessWindow,
		resolveDeadline: cfg.ResolveDeadline,
		clock:           time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Resolve returns the insight for the requested company, fetching from the
// external sources only when neither tier has a fresh answer.
func (s *Service) Resolve(ctx context.Context, req company.CheckRequest) (*company.Insight, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveResolveLatency(time.Since(start))
	}()

	key, err := company.CanonicalKey(req.Name)
	if err != nil {
		return nil, err
	}

	if insight := s.fromCache(ctx, key); insight != nil {
		return insight, nil
	}

	persisted, found := s.fromStore(ctx, key)
	if found && s.clock().Sub(persisted.LastCheckedAt) <= s.stalenessWindow {
		s.metrics.IncrementLookup("store", "hit")
		s.backfillCache(ctx, key, persisted)
		return persisted, nil
	}

	trigger := audit.TriggerMiss
	if found {
		trigger = audit.TriggerStale
		s.metrics.IncrementLookup("store", "stale")
	}

	return s.refresh(ctx, key, req, trigger)
}

// ForceRefresh re-runs the pipeline for an already-known company, bypassing
// both freshness checks. The check request is rebuilt from the persisted
// insight; an unknown key is CodeNotFound.
func (s *Service) ForceRefresh(ctx context.Context, key string) (*company.Insight, error) {
	persisted, err := s.store.FindByCanonicalName(ctx, key)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("company %q has never been resolved", key))
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load company for refresh", err)
	}

	req := company.CheckRequest{Name: persisted.Name, Website: persisted.Website}
	return s.refresh(ctx, key, req, audit.TriggerForced)
}

// GetCached returns the stored insight without ever fetching: cache first,
// then store regardless of staleness. CodeNotFound when neither tier has it.
func (s *Service) GetCached(ctx context.Context, key string) (*company.Insight, error) {
	if insight := s.fromCache(ctx, key); insight != nil {
		return insight, nil
	}
	persisted, found := s.fromStore(ctx, key)
	if !found {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("no insight for company %q", key))
	}
	s.metrics.IncrementLookup("store", "hit")
	return persisted, nil
}

// fromCache reads the hot tier. Backend trouble degrades to a miss with a
// warning; the resolve continues either way.
func (s *Service) fromCache(ctx context.Context, key string) *company.Insight {
	insight, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		s.metrics.IncrementLookup("cache", "hit")
		return insight
	case errors.Is(err, sentinel.ErrNotFound):
		s.metrics.IncrementLookup("cache", "miss")
	default:
		s.metrics.IncrementLookup("cache", "error")
		s.logger.WarnContext(ctx, "cache read failed, treating as miss", "company", key, "error", err)
	}
	return nil
}

func (s *Service) fromStore(ctx context.Context, key string) (*company.Insight, bool) {
	insight, err := s.store.FindByCanonicalName(ctx, key)
	switch {
	case err == nil:
		return insight, true
	case errors.Is(err, sentinel.ErrNotFound):
		s.metrics.IncrementLookup("store", "miss")
	default:
		s.metrics.IncrementLookup("store", "error")
		s.logger.ErrorContext(ctx, "store read failed, treating as miss", "company", key, "error", err)
	}
	return nil, false
}

// refresh fans out to every connector, scores whatever came back, and writes
// the insight through store and cache. Connector failures never abort the
// refresh; persistence failures are logged and the freshly computed insight
// is still returned.
func (s *Service) refresh(ctx context.Context, key string, req company.CheckRequest, trigger string) (*company.Insight, error) {
	signals := s.fanOut(ctx, req)

	result := scoring.Score(signals, scoring.Meta{
		Name:     req.Name,
		Website:  company.NormalizeWebsite(req.Website),
		Category: req.Category,
	})

	insight := &company.Insight{
		Name:          req.Name,
		CanonicalName: key,
		Website:       req.Website,
		Score:         result.Score,
		Risk:          result.Risk,
		CompanyType:   result.CompanyType,
		Flags:         result.Flags,
		Sources:       signals,
		LastCheckedAt: s.clock(),
	}

	if err := s.store.Save(ctx, insight); err != nil {
		s.logger.ErrorContext(ctx, "persist insight failed", "company", key, "error", err)
	}
	s.backfillCache(ctx, key, insight)

	s.metrics.IncrementRefresh(trigger)
	s.publishRefresh(ctx, insight, trigger)

	return insight, nil
}

// fanOut queries every connector in parallel under the resolve deadline. The
// result keeps registry enumeration order regardless of completion order, so
// identical evidence always scores identically.
func (s *Service) fanOut(ctx context.Context, req company.CheckRequest) []company.Signal {
	ctx, cancel := context.WithTimeout(ctx, s.resolveDeadline)
	defer cancel()

	results := make([][]company.Signal, len(s.connectors))
	g, gctx := errgroup.WithContext(ctx)

	for i, conn := range s.connectors {
		g.Go(func() error {
			source := conn.Source()
			start := time.Now()
			signals, err := conn.Fetch(gctx, req)
			s.metrics.ObserveConnectorLatency(string(source), time.Since(start))

			// A failed source is missing evidence, not a failed resolve.
			if err != nil {
				category := connectors.Categorize(err)
				s.metrics.IncrementConnectorFailure(string(source), string(category))
				s.logger.WarnContext(gctx, "connector fetch failed",
					"source", source, "category", category, "error", err)
				return nil
			}
			results[i] = signals
			return nil
		})
	}
	_ = g.Wait()

	var signals []company.Signal
	for _, part := range results {
		signals = append(signals, part...)
	}
	return signals
}

func (s *Service) backfillCache(ctx context.Context, key string, insight *company.Insight) {
	if err := s.cache.Set(ctx, key, insight, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "cache write failed", "company", key, "error", err)
	}
}

func (s *Service) publishRefresh(ctx context.Context, insight *company.Insight, trigger string) {
	if s.audit == nil {
		return
	}
	event := audit.Event{
		CanonicalName: insight.CanonicalName,
		Trigger:       trigger,
		Risk:          insight.Risk,
		Score:         insight.Score,
		SignalCount:   len(insight.Sources),
		OccurredAt:    insight.LastCheckedAt,
	}
	if err := s.audit.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit publish failed", "company", insight.CanonicalName, "error", err)
	}
}
