// Package company defines the core domain types for company authenticity
// checks: source signals, aggregated insights, and the canonical identity key.
package company

import (
	"time"
)

// Source identifies which external platform produced a signal.
type Source string

const (
	SourceReddit      Source = "reddit"
	SourceX           Source = "x"
	SourceGlassdoor   Source = "glassdoor"
	SourceAmbitionBox Source = "ambitionbox"
	SourceLinkedIn    Source = "linkedin"
	SourceManual      Source = "manual"
)

// Sources enumerates all connector-backed sources in a fixed order. Fan-out
// results are assembled in this order so scoring input is deterministic
// regardless of connector completion order.
var Sources = []Source{
	SourceReddit,
	SourceX,
	SourceGlassdoor,
	SourceAmbitionBox,
	SourceLinkedIn,
}

// Sentiment classifies the tone of a signal's text.
type Sentiment string

const (
	SentimentUnknown  Sentiment = ""
	SentimentPositive Sentiment = "pos"
	SentimentNegative Sentiment = "neg"
	SentimentMixed    Sentiment = "mixed"
	SentimentNeutral  Sentiment = "neutral"
)

// Risk is the caller-facing scam risk classification.
type Risk string

const (
	RiskLow     Risk = "low"
	RiskMedium  Risk = "medium"
	RiskHigh    Risk = "high"
	RiskUnknown Risk = "unknown"
)

// CompanyType is the inferred business category.
type CompanyType string

const (
	TypeTraining   CompanyType = "training"
	TypeEdTech     CompanyType = "edtech"
	TypeStaffing   CompanyType = "staffing"
	TypeITServices CompanyType = "it_services"
)

// Signal is one observation about a company from one external source.
// Signals are immutable once produced.
type Signal struct {
	Source      Source    `json:"source"`
	URL         string    `json:"url"`
	Title       string    `json:"title,omitempty"`
	Snippet     string    `json:"snippet,omitempty"`
	Rating      *float64  `json:"rating,omitempty"`       // 0-5 scale
	ReviewCount *int      `json:"review_count,omitempty"` // non-negative
	Sentiment   Sentiment `json:"sentiment,omitempty"`
}

// Insight is the aggregate scored result for one canonical key. It is
// constructed by the aggregator after a scoring pass and never mutated; a
// refresh produces a new Insight that supersedes the prior one.
type Insight struct {
	Name          string       `json:"name"`
	CanonicalName string       `json:"canonical_name"`
	Website       string       `json:"website,omitempty"`
	Score         *float64     `json:"authenticity_score,omitempty"` // 0-100, nil when no evidence
	Risk          Risk         `json:"scam_risk"`
	CompanyType   *CompanyType `json:"company_type,omitempty"`
	Flags         []string     `json:"flags"`
	Sources       []Signal     `json:"sources"`
	LastCheckedAt time.Time    `json:"last_checked_at"` // when signals were fetched, not when served
}

// CheckRequest is a validated request to resolve a company.
type CheckRequest struct {
	Name     string
	Website  string
	Country  string
	Category string
}
