package connectors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"golang.org/x/time/rate"

	"github.com/DEMONNN69/knowyourcompany/internal/company"
	"github.com/DEMONNN69/knowyourcompany/internal/platform/config"
)

const maxRedirects = 3

// Client is the shared scraping HTTP client used by all connectors. It
// enforces a per-host rate limit, a body size cap, a redirect cap, and an
// optional robots.txt gate, so individual connectors only deal with parsing.
type Client struct {
	http     *http.Client
	robots   *robotsGate
	ua       string
	maxBytes int64

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

// NewClient builds a Client from the connector policy config.
func NewClient(cfg config.ConnectorConfig) *Client {
	c := &Client{
		http: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		ua:       cfg.UserAgent,
		maxBytes: cfg.MaxBodyBytes,
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(cfg.RequestsPerSecond),
		burst:    cfg.Burst,
	}
	if cfg.RespectRobots {
		c.robots = newRobotsGate(cfg.UserAgent, cfg.Timeout)
	}
	return c
}

// Get fetches rawURL and returns the response body, capped at the configured
// size. Non-2xx statuses, limiter pushback, and robots denials come back as
// categorized ConnectorErrors attributed to source.
func (c *Client) Get(ctx context.Context, source company.Source, rawURL string) ([]byte, error) {
	resp, err := c.do(ctx, source, rawURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if cat, ok := statusCategory(resp.StatusCode); ok {
		return nil, newError(source, cat, fmt.Sprintf("unexpected status %d for %s", resp.StatusCode, rawURL), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, newError(source, ErrorOutage, "read body", err)
	}
	return body, nil
}

// Probe fetches rawURL and returns only the status code. Used for presence
// checks where 404 is a meaningful answer rather than a failure.
func (c *Client) Probe(ctx context.Context, source company.Source, rawURL string) (int, error) {
	resp, err := c.do(ctx, source, rawURL)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

func (c *Client) do(ctx context.Context, source company.Source, rawURL string) (*http.Response, error) {
	host, err := hostOf(rawURL)
	if err != nil {
		return nil, newError(source, ErrorInternal, "parse url", err)
	}

	if err := c.limiter(host).Wait(ctx); err != nil {
		return nil, newError(source, ErrorRateLimited, "rate limiter wait", err)
	}

	if c.robots != nil && !c.robots.allowed(ctx, rawURL) {
		return nil, newError(source, ErrorBlocked, "disallowed by robots.txt", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, newError(source, ErrorInternal, "create request", err)
	}
	req.Header.Set("User-Agent", c.ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, newError(source, ErrorTimeout, "fetch", err)
		}
		return nil, newError(source, ErrorOutage, "fetch", err)
	}
	return resp, nil
}

// limiter returns the per-host limiter, creating it on first use.
func (c *Client) limiter(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.limiters[host]
	if !ok {
		l = rate.NewLimiter(c.rps, c.burst)
		c.limiters[host] = l
	}
	return l
}

// statusCategory maps non-success HTTP statuses to error categories.
func statusCategory(status int) (ErrorCategory, bool) {
	switch {
	case status >= 200 && status < 300:
		return "", false
	case status == http.StatusTooManyRequests:
		return ErrorRateLimited, true
	case status == http.StatusForbidden || status == 999: // 999 is LinkedIn's bot wall
		return ErrorBlocked, true
	case status >= 500:
		return ErrorOutage, true
	default:
		return ErrorParse, true
	}
}

func hostOf(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("no host in %q", rawURL)
	}
	return parsed.Host, nil
}
