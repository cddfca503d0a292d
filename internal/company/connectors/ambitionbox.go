package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/DEMONNN69/knowyourcompany/internal/company"
)

const ambitionBoxDefaultBaseURL = "https://www.ambitionbox.com"

// AmbitionBox looks the company up on ambitionbox.com and reads the
// aggregate rating from the reviews page, which publishes it as JSON-LD.
type AmbitionBox struct {
	client  *Client
	baseURL string
}

func NewAmbitionBox(client *Client) *AmbitionBox {
	return &AmbitionBox{client: client, baseURL: ambitionBoxDefaultBaseURL}
}

func (a *AmbitionBox) Source() company.Source { return company.SourceAmbitionBox }

var (
	ambitionBoxReviewsLink = regexp.MustCompile(`href="(/reviews/[a-z0-9-]+-reviews)"`)
	jsonLDPattern          = regexp.MustCompile(`(?s)<script[^>]*type="application/ld\+json"[^>]*>(.*?)</script>`)
)

func (a *AmbitionBox) Fetch(ctx context.Context, req company.CheckRequest) ([]company.Signal, error) {
	reviewsPath, err := a.findReviewsPath(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if reviewsPath == "" {
		return nil, nil
	}

	reviewsURL := a.baseURL + reviewsPath
	body, err := a.client.Get(ctx, company.SourceAmbitionBox, reviewsURL)
	if err != nil {
		return nil, err
	}

	rating, reviewCount, displayName := parseAggregateRating(body)
	if rating == nil && reviewCount == nil {
		return nil, nil
	}

	title := req.Name
	if displayName != "" {
		title = displayName
	}
	sig := company.Signal{
		Source:      company.SourceAmbitionBox,
		URL:         reviewsURL,
		Title:       title + " - AmbitionBox Reviews",
		Rating:      rating,
		ReviewCount: reviewCount,
	}
	if rating != nil {
		sig.Snippet = fmt.Sprintf("AmbitionBox rating: %.1f/5.0", *rating)
	}
	return []company.Signal{sig}, nil
}

func (a *AmbitionBox) findReviewsPath(ctx context.Context, name string) (string, error) {
	q := url.Values{}
	q.Set("q", name)
	searchURL := fmt.Sprintf("%s/search?%s", a.baseURL, q.Encode())

	body, err := a.client.Get(ctx, company.SourceAmbitionBox, searchURL)
	if err != nil {
		return "", err
	}

	match := ambitionBoxReviewsLink.FindSubmatch(body)
	if match == nil {
		return "", nil
	}
	return string(match[1]), nil
}

// jsonLDDocument is the subset of schema.org markup the reviews page carries.
// Numeric fields arrive as either numbers or strings depending on the page
// build, hence json.Number via the flexible decode below.
type jsonLDDocument struct {
	Name            string `json:"name"`
	AggregateRating *struct {
		RatingValue json.RawMessage `json:"ratingValue"`
		ReviewCount json.RawMessage `json:"reviewCount"`
		RatingCount json.RawMessage `json:"ratingCount"`
	} `json:"aggregateRating"`
}

// parseAggregateRating scans every JSON-LD block for an aggregateRating.
func parseAggregateRating(html []byte) (*float64, *int, string) {
	for _, match := range jsonLDPattern.FindAllSubmatch(html, -1) {
		raw := match[1]

		var docs []jsonLDDocument
		var single jsonLDDocument
		if err := json.Unmarshal(raw, &single); err == nil {
			docs = append(docs, single)
		} else if err := json.Unmarshal(raw, &docs); err != nil {
			continue
		}

		for _, doc := range docs {
			if doc.AggregateRating == nil {
				continue
			}
			rating := rawFloat(doc.AggregateRating.RatingValue)
			count := rawInt(doc.AggregateRating.ReviewCount)
			if count == nil {
				count = rawInt(doc.AggregateRating.RatingCount)
			}
			if rating == nil && count == nil {
				continue
			}
			return rating, count, doc.Name
		}
	}
	return nil, nil, ""
}

func rawFloat(raw json.RawMessage) *float64 {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func rawInt(raw json.RawMessage) *int {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}
