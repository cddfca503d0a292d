package connectors

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/DEMONNN69/knowyourcompany/internal/company"
)

const linkedInDefaultBaseURL = "https://www.linkedin.com"

// LinkedIn probes whether the company has an official page. It never reads
// profile content: a 200 on the company slug is a presence signal, a 404 is a
// confirmed absence, and anything else is a failure so the absence flag is
// not raised on flaky evidence.
type LinkedIn struct {
	client  *Client
	baseURL string
}

func NewLinkedIn(client *Client) *LinkedIn {
	return &LinkedIn{client: client, baseURL: linkedInDefaultBaseURL}
}

func (l *LinkedIn) Source() company.Source { return company.SourceLinkedIn }

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

func (l *LinkedIn) Fetch(ctx context.Context, req company.CheckRequest) ([]company.Signal, error) {
	slug := companySlug(req.Name)
	if slug == "" {
		return nil, nil
	}

	pageURL := fmt.Sprintf("%s/company/%s", l.baseURL, slug)
	status, err := l.client.Probe(ctx, company.SourceLinkedIn, pageURL)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusNotFound:
		return nil, nil
	case status >= 200 && status < 300:
		return []company.Signal{{
			Source:  company.SourceLinkedIn,
			URL:     pageURL,
			Title:   req.Name + " on LinkedIn",
			Snippet: fmt.Sprintf("Official LinkedIn company page exists for %s", req.Name),
		}}, nil
	default:
		if cat, ok := statusCategory(status); ok {
			return nil, newError(company.SourceLinkedIn, cat, fmt.Sprintf("presence probe returned %d", status), nil)
		}
		return nil, nil
	}
}

// companySlug derives the LinkedIn vanity slug from a display name.
func companySlug(name string) string {
	slug := slugUnsafe.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
