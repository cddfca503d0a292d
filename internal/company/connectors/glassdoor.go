package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/DEMONNN69/knowyourcompany/internal/company"
)

const glassdoorDefaultBaseURL = "https://www.glassdoor.com"

// Glassdoor resolves a company to its employer profile and reads the overall
// rating and review count. The overview page embeds its data as an Apollo
// cache in a script tag, so no markup traversal is needed.
type Glassdoor struct {
	client  *Client
	baseURL string
}

func NewGlassdoor(client *Client) *Glassdoor {
	return &Glassdoor{client: client, baseURL: glassdoorDefaultBaseURL}
}

func (g *Glassdoor) Source() company.Source { return company.SourceGlassdoor }

var (
	glassdoorOverviewLink = regexp.MustCompile(`/Overview/Working-at-[A-Za-z0-9-]*EI_IE(\d+)`)
	apolloStatePattern    = regexp.MustCompile(`(?s)__APOLLO_STATE__["']{0,2}\s*=\s*(\{.*?\});?\s*</script>`)
)

type glassdoorEmployer struct {
	Name          string   `json:"name"`
	OverallRating *float64 `json:"overallRating"`
	ReviewCount   *int     `json:"reviewCount"`
}

func (g *Glassdoor) Fetch(ctx context.Context, req company.CheckRequest) ([]company.Signal, error) {
	employerID, err := g.findEmployerID(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if employerID == "" {
		return nil, nil
	}

	overviewURL := fmt.Sprintf("%s/Overview/Working-at-EI_IE%s.htm", g.baseURL, employerID)
	body, err := g.client.Get(ctx, company.SourceGlassdoor, overviewURL)
	if err != nil {
		return nil, err
	}

	employer, err := extractEmployer(body)
	if err != nil {
		return nil, err
	}
	if employer == nil {
		return nil, nil
	}

	sig := company.Signal{
		Source:      company.SourceGlassdoor,
		URL:         overviewURL,
		Title:       "Company Overview",
		Rating:      employer.OverallRating,
		ReviewCount: employer.ReviewCount,
	}
	if employer.Name != "" {
		sig.Snippet = fmt.Sprintf("Glassdoor employer profile: %s", employer.Name)
	}
	return []company.Signal{sig}, nil
}

// findEmployerID searches for the company and returns the first employer id
// linked from the results. Empty when the search knows nothing.
func (g *Glassdoor) findEmployerID(ctx context.Context, name string) (string, error) {
	q := url.Values{}
	q.Set("keyword", name)
	searchURL := fmt.Sprintf("%s/Search/results.htm?%s", g.baseURL, q.Encode())

	body, err := g.client.Get(ctx, company.SourceGlassdoor, searchURL)
	if err != nil {
		return "", err
	}

	match := glassdoorOverviewLink.FindSubmatch(body)
	if match == nil {
		return "", nil
	}
	return string(match[1]), nil
}

// extractEmployer pulls the first Employer record out of the page's embedded
// Apollo cache.
func extractEmployer(html []byte) (*glassdoorEmployer, error) {
	match := apolloStatePattern.FindSubmatch(html)
	if match == nil {
		return nil, nil
	}

	var state map[string]json.RawMessage
	if err := json.Unmarshal(match[1], &state); err != nil {
		return nil, newError(company.SourceGlassdoor, ErrorParse, "decode apollo state", err)
	}

	keys := make([]string, 0, len(state))
	for key := range state {
		if strings.HasPrefix(key, "Employer:") {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		var employer glassdoorEmployer
		if err := json.Unmarshal(state[key], &employer); err != nil {
			continue
		}
		return &employer, nil
	}
	return nil, nil
}
