package connectors

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/DEMONNN69/knowyourcompany/internal/company"
)

const (
	breakerMaxFailures       = 3
	breakerOpenTimeout       = 30 * time.Second
	breakerHalfOpenSuccesses = 2
)

// breakerConnector guards a connector with a circuit breaker so a platform
// that is down or blocking us stops being hammered on every resolve. While
// the circuit is open, Fetch fails fast with a rate_limited error.
type breakerConnector struct {
	inner   Connector
	breaker *gobreaker.CircuitBreaker
}

func withBreaker(inner Connector, log *slog.Logger) Connector {
	src := inner.Source()
	settings := gobreaker.Settings{
		Name:        string(src),
		MaxRequests: breakerHalfOpenSuccesses,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("connector circuit state change",
				"source", name, "from", from.String(), "to", to.String())
		},
	}
	return &breakerConnector{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (b *breakerConnector) Source() company.Source { return b.inner.Source() }

func (b *breakerConnector) Fetch(ctx context.Context, req company.CheckRequest) ([]company.Signal, error) {
	result, err := b.breaker.Execute(func() (any, error) {
		return b.inner.Fetch(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, newError(b.Source(), ErrorRateLimited, "circuit open", err)
		}
		return nil, err
	}
	signals, ok := result.([]company.Signal)
	if !ok {
		return nil, newError(b.Source(), ErrorInternal, "unexpected breaker result type", nil)
	}
	return signals, nil
}
