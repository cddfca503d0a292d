package connectors

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/DEMONNN69/knowyourcompany/internal/company"
)

// X searches for posts mentioning the company via a nitter instance's RSS
// search feed. X itself has no unauthenticated search surface; nitter mirrors
// it with stable markup.
type X struct {
	client  *Client
	baseURL string
}

func NewX(client *Client, baseURL string) *X {
	return &X{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (x *X) Source() company.Source { return company.SourceX }

type nitterFeed struct {
	Channel struct {
		Items []struct {
			Title       string `xml:"title"`
			Link        string `xml:"link"`
			Description string `xml:"description"`
		} `xml:"item"`
	} `xml:"channel"`
}

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

func (x *X) Fetch(ctx context.Context, req company.CheckRequest) ([]company.Signal, error) {
	q := url.Values{}
	q.Set("f", "tweets")
	q.Set("q", fmt.Sprintf("%q", req.Name))
	feedURL := fmt.Sprintf("%s/search/rss?%s", x.baseURL, q.Encode())

	body, err := x.client.Get(ctx, company.SourceX, feedURL)
	if err != nil {
		return nil, err
	}

	var feed nitterFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, newError(company.SourceX, ErrorParse, "decode search feed", err)
	}

	signals := make([]company.Signal, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		text := strings.TrimSpace(htmlTagPattern.ReplaceAllString(item.Description, " "))
		if text == "" {
			text = item.Title
		}
		signals = append(signals, company.Signal{
			Source:  company.SourceX,
			URL:     item.Link,
			Title:   item.Title,
			Snippet: text,
		})
	}
	return capSignals(signals), nil
}
