// Package connectors fetches raw authenticity signals about a company from
// external platforms. Every connector is best-effort: it returns a typed
// ConnectorError on failure and the aggregator decides what a partial result
// set means.
package connectors

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DEMONNN69/knowyourcompany/internal/company"
	"github.com/DEMONNN69/knowyourcompany/internal/platform/config"
)

// maxSignalsPerSource caps how many signals a single connector may emit for
// one company, keeping fan-out results bounded.
const maxSignalsPerSource = 5

// Connector fetches signals for one external source.
type Connector interface {
	// Source identifies which platform this connector covers.
	Source() company.Source

	// Fetch returns the signals the platform currently has for the request.
	// An empty slice with a nil error is a valid answer: the platform was
	// reachable and knows nothing.
	Fetch(ctx context.Context, req company.CheckRequest) ([]company.Signal, error)
}

// NewRegistry assembles the full connector set, each wrapped in its own
// circuit breaker. The slice order follows company.Sources so fan-out result
// assembly is deterministic.
func NewRegistry(client *Client, cfg config.ConnectorConfig, log *slog.Logger) ([]Connector, error) {
	bySource := map[company.Source]Connector{
		company.SourceReddit:      NewReddit(client),
		company.SourceX:           NewX(client, cfg.NitterBaseURL),
		company.SourceGlassdoor:   NewGlassdoor(client),
		company.SourceAmbitionBox: NewAmbitionBox(client),
		company.SourceLinkedIn:    NewLinkedIn(client),
	}

	registry := make([]Connector, 0, len(company.Sources))
	for _, src := range company.Sources {
		c, ok := bySource[src]
		if !ok {
			return nil, fmt.Errorf("no connector registered for source %q", src)
		}
		registry = append(registry, withBreaker(c, log))
	}
	return registry, nil
}

func capSignals(signals []company.Signal) []company.Signal {
	if len(signals) > maxSignalsPerSource {
		return signals[:maxSignalsPerSource]
	}
	return signals
}
