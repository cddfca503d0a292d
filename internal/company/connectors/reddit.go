package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/DEMONNN69/knowyourcompany/internal/company"
)

const (
	redditDefaultBaseURL = "https://old.reddit.com"
	redditSnippetMax     = 300

	// Engagement thresholds for posts without readable discussion; strongly
	// voted threads carry a tone of their own.
	redditUpvotePositive   = 200
	redditDownvoteNegative = -20
)

// Reddit searches reddit for discussion threads mentioning the company. It
// uses the JSON search endpoint, which serves the same results as the
// server-rendered search page without the markup.
type Reddit struct {
	client  *Client
	baseURL string
}

func NewReddit(client *Client) *Reddit {
	return &Reddit{client: client, baseURL: redditDefaultBaseURL}
}

func (r *Reddit) Source() company.Source { return company.SourceReddit }

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title       string  `json:"title"`
	Permalink   string  `json:"permalink"`
	Selftext    string  `json:"selftext"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
}

// Fetch runs a small set of query variations and merges the results,
// deduplicated by permalink. One failing query does not sink the others; an
// error is returned only when every query failed.
func (r *Reddit) Fetch(ctx context.Context, req company.CheckRequest) ([]company.Signal, error) {
	queries := []string{
		fmt.Sprintf("%q review", req.Name),
		fmt.Sprintf("%q internship", req.Name),
	}

	var signals []company.Signal
	var lastErr error
	seen := make(map[string]struct{})

	for _, query := range queries {
		posts, err := r.search(ctx, query)
		if err != nil {
			lastErr = err
			continue
		}
		for _, post := range posts {
			if post.Permalink == "" {
				continue
			}
			if _, dup := seen[post.Permalink]; dup {
				continue
			}
			seen[post.Permalink] = struct{}{}
			signals = append(signals, r.toSignal(post))
		}
	}

	if len(signals) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return capSignals(signals), nil
}

func (r *Reddit) search(ctx context.Context, query string) ([]redditPost, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("sort", "relevance")
	q.Set("t", "all")
	q.Set("limit", "5")
	searchURL := fmt.Sprintf("%s/search.json?%s", r.baseURL, q.Encode())

	body, err := r.client.Get(ctx, company.SourceReddit, searchURL)
	if err != nil {
		return nil, err
	}

	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, newError(company.SourceReddit, ErrorParse, "decode search listing", err)
	}

	posts := make([]redditPost, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		posts = append(posts, child.Data)
	}
	return posts, nil
}

func (r *Reddit) toSignal(post redditPost) company.Signal {
	snippet := strings.TrimSpace(post.Selftext)
	if len(snippet) > redditSnippetMax {
		snippet = snippet[:redditSnippetMax]
	}
	if snippet == "" {
		snippet = post.Title
	}

	comments := post.NumComments
	sig := company.Signal{
		Source:      company.SourceReddit,
		URL:         r.baseURL + post.Permalink,
		Title:       post.Title,
		Snippet:     snippet,
		ReviewCount: &comments,
	}

	// Without comment text the thread score is the only tone we have.
	switch {
	case post.Score >= redditUpvotePositive:
		sig.Sentiment = company.SentimentPositive
	case post.Score <= redditDownvoteNegative:
		sig.Sentiment = company.SentimentNegative
	}
	return sig
}
