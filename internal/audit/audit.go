// Package audit emits insight-refresh events so downstream consumers can see
// when and why a company's authenticity profile changed. Publishing is
// fire-and-forget: an unreachable sink is logged, never surfaced to the
// caller.
package audit

import (
	"context"
	"time"

	"github.com/DEMONNN69/knowyourcompany/internal/company"
)

// Trigger names why a refresh ran.
const (
	TriggerMiss   = "miss"
	TriggerStale  = "stale"
	TriggerForced = "forced"
)

// Event records one completed refresh. Keep it transport-agnostic so sinks
// can fan out.
type Event struct {
	CanonicalName string       `json:"canonical_name"`
	Trigger       string       `json:"trigger"`
	Risk          company.Risk `json:"scam_risk"`
	Score         *float64     `json:"score,omitempty"`
	SignalCount   int          `json:"signal_count"`
	OccurredAt    time.Time    `json:"occurred_at"`
}

// Publisher delivers refresh events to a sink.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
