package handler

import (
	"time"

	"github.com/DEMONNN69/knowyourcompany/internal/company"
)

// InsightResponse is the HTTP representation of a resolved company insight.
type InsightResponse struct {
	Name          string           `json:"name"`
	CanonicalName string           `json:"canonical_name"`
	Website       string           `json:"website,omitempty"`
	Score         *float64         `json:"score"`
	ScamRisk      string           `json:"scam_risk"`
	CompanyType   *string          `json:"company_type,omitempty"`
	Flags         []string         `json:"flags"`
	Sources       []SignalResponse `json:"sources"`
	LastCheckedAt time.Time        `json:"last_checked_at"`
}

// SignalResponse is one source signal in an insight response.
type SignalResponse struct {
	Source      string   `json:"source"`
	URL         string   `json:"url,omitempty"`
	Title       string   `json:"title,omitempty"`
	Snippet     string   `json:"snippet,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`
	Sentiment   string   `json:"sentiment,omitempty"`
}

// FromInsight converts a domain insight to its HTTP representation.
func FromInsight(insight *company.Insight) *InsightResponse {
	resp := &InsightResponse{
		Name:          insight.Name,
		CanonicalName: insight.CanonicalName,
		Website:       insight.Website,
		Score:         insight.Score,
		ScamRisk:      string(insight.Risk),
		Flags:         insight.Flags,
		Sources:       make([]SignalResponse, 0, len(insight.Sources)),
		LastCheckedAt: insight.LastCheckedAt,
	}
	if insight.CompanyType != nil {
		companyType := string(*insight.CompanyType)
		resp.CompanyType = &companyType
	}
	if resp.Flags == nil {
		resp.Flags = []string{}
	}
	for _, sig := range insight.Sources {
		resp.Sources = append(resp.Sources, SignalResponse{
			Source:      string(sig.Source),
			URL:         sig.URL,
			Title:       sig.Title,
			Snippet:     sig.Snippet,
			Rating:      sig.Rating,
			ReviewCount: sig.ReviewCount,
			Sentiment:   string(sig.Sentiment),
		})
	}
	return resp
}
