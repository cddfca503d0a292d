package connectors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/suite"

	"github.com/DEMONNN69/knowyourcompany/internal/company"
	"github.com/DEMONNN69/knowyourcompany/internal/platform/config"
)

func testClient(respectRobots bool) *Client {
	return NewClient(config.ConnectorConfig{
		Timeout:           2 * time.Second,
		UserAgent:         "kyc-test/1.0",
		MaxBodyBytes:      1 << 20,
		RequestsPerSecond: 100,
		Burst:             100,
		RespectRobots:     respectRobots,
	})
}

type RedditSuite struct {
	suite.Suite
}

func TestRedditSuite(t *testing.T) {
	suite.Run(t, new(RedditSuite))
}

func (s *RedditSuite) TestFetchParsesListing() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/search.json", r.URL.Path)
		fmt.Fprint(w, `{"data":{"children":[
			{"data":{"title":"Acme internship experience","permalink":"/r/jobs/comments/abc/acme/","selftext":"They paid the stipend on time","score":12,"num_comments":4}},
			{"data":{"title":"Is Acme a scam?","permalink":"/r/india/comments/def/acme/","selftext":"","score":-40,"num_comments":30}}
		]}}`)
	}))
	defer srv.Close()

	reddit := NewReddit(testClient(false))
	reddit.baseURL = srv.URL

	signals, err := reddit.Fetch(context.Background(), company.CheckRequest{Name: "Acme"})

	s.Require().NoError(err)
	s.Require().Len(signals, 2)

	first := signals[0]
	s.Equal(company.SourceReddit, first.Source)
	s.Equal(srv.URL+"/r/jobs/comments/abc/acme/", first.URL)
	s.Equal("They paid the stipend on time", first.Snippet)
	s.Require().NotNil(first.ReviewCount)
	s.Equal(4, *first.ReviewCount)
	s.Equal(company.SentimentUnknown, first.Sentiment)

	// Heavily downvoted thread with no readable body: title becomes the
	// snippet and the score sets the tone.
	second := signals[1]
	s.Equal("Is Acme a scam?", second.Snippet)
	s.Equal(company.SentimentNegative, second.Sentiment)
}

func (s *RedditSuite) TestFetchDeduplicatesAcrossQueries() {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"data":{"children":[
			{"data":{"title":"Same thread","permalink":"/r/jobs/comments/abc/","score":1,"num_comments":1}}
		]}}`)
	}))
	defer srv.Close()

	reddit := NewReddit(testClient(false))
	reddit.baseURL = srv.URL

	signals, err := reddit.Fetch(context.Background(), company.CheckRequest{Name: "Acme"})

	s.Require().NoError(err)
	s.Len(signals, 1)
	s.Equal(2, calls)
}

func (s *RedditSuite) TestFetchSurvivesOneFailedQuery() {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"data":{"children":[
			{"data":{"title":"Thread","permalink":"/r/jobs/comments/xyz/","score":1,"num_comments":1}}
		]}}`)
	}))
	defer srv.Close()

	reddit := NewReddit(testClient(false))
	reddit.baseURL = srv.URL

	signals, err := reddit.Fetch(context.Background(), company.CheckRequest{Name: "Acme"})

	s.Require().NoError(err)
	s.Len(signals, 1)
}

type GlassdoorSuite struct {
	suite.Suite
}

func TestGlassdoorSuite(t *testing.T) {
	suite.Run(t, new(GlassdoorSuite))
}

func (s *GlassdoorSuite) TestFetchExtractsEmployerRating() {
	mux := http.NewServeMux()
	mux.HandleFunc("/Search/results.htm", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><a href="/Overview/Working-at-Acme-EI_IE12345.htm">Acme</a></html>`)
	})
	mux.HandleFunc("/Overview/Working-at-EI_IE12345.htm", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><script>window.__APOLLO_STATE__ = {"Employer:12345":{"name":"Acme Corp","overallRating":3.8,"reviewCount":214}};</script></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	glassdoor := NewGlassdoor(testClient(false))
	glassdoor.baseURL = srv.URL

	signals, err := glassdoor.Fetch(context.Background(), company.CheckRequest{Name: "Acme Corp"})

	s.Require().NoError(err)
	s.Require().Len(signals, 1)
	sig := signals[0]
	s.Equal(company.SourceGlassdoor, sig.Source)
	s.Require().NotNil(sig.Rating)
	s.InDelta(3.8, *sig.Rating, 1e-9)
	s.Require().NotNil(sig.ReviewCount)
	s.Equal(214, *sig.ReviewCount)
	s.Contains(sig.Snippet, "Acme Corp")
}

func (s *GlassdoorSuite) TestFetchNoResultsIsNotAnError() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>no employers found</html>`)
	}))
	defer srv.Close()

	glassdoor := NewGlassdoor(testClient(false))
	glassdoor.baseURL = srv.URL

	signals, err := glassdoor.Fetch(context.Background(), company.CheckRequest{Name: "Ghost Ltd"})

	s.NoError(err)
	s.Empty(signals)
}

type AmbitionBoxSuite struct {
	suite.Suite
}

func TestAmbitionBoxSuite(t *testing.T) {
	suite.Run(t, new(AmbitionBoxSuite))
}

func (s *AmbitionBoxSuite) TestFetchParsesJSONLD() {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><a href="/reviews/acme-corp-reviews">Acme Corp Reviews</a></html>`)
	})
	mux.HandleFunc("/reviews/acme-corp-reviews", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><script type="application/ld+json">
			{"name":"Acme Corp","aggregateRating":{"ratingValue":"4.1","reviewCount":"1,204"}}
		</script></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ab := NewAmbitionBox(testClient(false))
	ab.baseURL = srv.URL

	signals, err := ab.Fetch(context.Background(), company.CheckRequest{Name: "Acme Corp"})

	s.Require().NoError(err)
	s.Require().Len(signals, 1)
	sig := signals[0]
	s.Equal(company.SourceAmbitionBox, sig.Source)
	s.Require().NotNil(sig.Rating)
	s.InDelta(4.1, *sig.Rating, 1e-9)
	s.Require().NotNil(sig.ReviewCount)
	s.Equal(1204, *sig.ReviewCount)
	s.Equal("Acme Corp - AmbitionBox Reviews", sig.Title)
}

func (s *AmbitionBoxSuite) TestFetchNoReviewsLink() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>nothing here</html>`)
	}))
	defer srv.Close()

	ab := NewAmbitionBox(testClient(false))
	ab.baseURL = srv.URL

	signals, err := ab.Fetch(context.Background(), company.CheckRequest{Name: "Ghost Ltd"})

	s.NoError(err)
	s.Empty(signals)
}

type LinkedInSuite struct {
	suite.Suite
}

func TestLinkedInSuite(t *testing.T) {
	suite.Run(t, new(LinkedInSuite))
}

func (s *LinkedInSuite) TestPresenceProbe() {
	s.Run("page exists", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.Equal("/company/acme-corp", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		li := NewLinkedIn(testClient(false))
		li.baseURL = srv.URL

		signals, err := li.Fetch(context.Background(), company.CheckRequest{Name: "Acme Corp"})

		s.Require().NoError(err)
		s.Require().Len(signals, 1)
		s.Equal(company.SourceLinkedIn, signals[0].Source)
		s.Equal(srv.URL+"/company/acme-corp", signals[0].URL)
	})

	s.Run("page missing", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		li := NewLinkedIn(testClient(false))
		li.baseURL = srv.URL

		signals, err := li.Fetch(context.Background(), company.CheckRequest{Name: "Ghost Ltd"})

		s.NoError(err)
		s.Empty(signals)
	})

	s.Run("bot wall is an error not an absence", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(999)
		}))
		defer srv.Close()

		li := NewLinkedIn(testClient(false))
		li.baseURL = srv.URL

		signals, err := li.Fetch(context.Background(), company.CheckRequest{Name: "Acme Corp"})

		s.Require().Error(err)
		s.Empty(signals)
		s.Equal(ErrorBlocked, Categorize(err))
	})
}

type XSuite struct {
	suite.Suite
}

func TestXSuite(t *testing.T) {
	suite.Run(t, new(XSuite))
}

func (s *XSuite) TestFetchParsesFeed() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/search/rss", r.URL.Path)
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
			<rss version="2.0"><channel>
				<item>
					<title>Acme never pays interns</title>
					<link>https://x.example/u/status/1</link>
					<description>&lt;p&gt;Acme never pays interns, avoid&lt;/p&gt;</description>
				</item>
			</channel></rss>`)
	}))
	defer srv.Close()

	x := NewX(testClient(false), srv.URL)

	signals, err := x.Fetch(context.Background(), company.CheckRequest{Name: "Acme"})

	s.Require().NoError(err)
	s.Require().Len(signals, 1)
	s.Equal(company.SourceX, signals[0].Source)
	s.Equal("https://x.example/u/status/1", signals[0].URL)
	s.Equal("Acme never pays interns, avoid", signals[0].Snippet)
}

type ClientSuite struct {
	suite.Suite
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) TestStatusCategorization() {
	cases := []struct {
		status int
		want   ErrorCategory
	}{
		{http.StatusTooManyRequests, ErrorRateLimited},
		{http.StatusForbidden, ErrorBlocked},
		{http.StatusBadGateway, ErrorOutage},
		{http.StatusNotFound, ErrorParse},
	}

	for _, tc := range cases {
		s.Run(fmt.Sprintf("status %d", tc.status), func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			_, err := testClient(false).Get(context.Background(), company.SourceReddit, srv.URL)

			s.Require().Error(err)
			var ce *ConnectorError
			s.Require().ErrorAs(err, &ce)
			s.Equal(tc.want, ce.Category)
			s.Equal(company.SourceReddit, ce.Source)
		})
	}
}

func (s *ClientSuite) TestRobotsDisallowBlocksFetch() {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /private/\n")
	})
	mux.HandleFunc("/private/page", func(w http.ResponseWriter, r *http.Request) {
		s.Fail("disallowed path must not be fetched")
	})
	mux.HandleFunc("/public/page", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := testClient(true)

	_, err := client.Get(context.Background(), company.SourceReddit, srv.URL+"/private/page")
	s.Require().Error(err)
	s.Equal(ErrorBlocked, Categorize(err))

	body, err := client.Get(context.Background(), company.SourceReddit, srv.URL+"/public/page")
	s.Require().NoError(err)
	s.Equal("ok", string(body))
}

func (s *ClientSuite) TestBodySizeCap() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for range 1000 {
			fmt.Fprint(w, "xxxxxxxxxx")
		}
	}))
	defer srv.Close()

	client := NewClient(config.ConnectorConfig{
		Timeout:           2 * time.Second,
		UserAgent:         "kyc-test/1.0",
		MaxBodyBytes:      100,
		RequestsPerSecond: 100,
		Burst:             100,
	})

	body, err := client.Get(context.Background(), company.SourceReddit, srv.URL)

	s.Require().NoError(err)
	s.Len(body, 100)
}

type failingConnector struct {
	fetches int
}

func (f *failingConnector) Source() company.Source { return company.SourceReddit }

func (f *failingConnector) Fetch(context.Context, company.CheckRequest) ([]company.Signal, error) {
	f.fetches++
	return nil, newError(company.SourceReddit, ErrorOutage, "down", nil)
}

type BreakerSuite struct {
	suite.Suite
}

func TestBreakerSuite(t *testing.T) {
	suite.Run(t, new(BreakerSuite))
}

func (s *BreakerSuite) TestCircuitOpensAfterConsecutiveFailures() {
	inner := &failingConnector{}
	guarded := withBreaker(inner, discardLogger())

	for range breakerMaxFailures {
		_, err := guarded.Fetch(context.Background(), company.CheckRequest{Name: "Acme"})
		s.Require().Error(err)
		s.Equal(ErrorOutage, Categorize(err))
	}

	// Circuit is now open: the inner connector is not called again.
	_, err := guarded.Fetch(context.Background(), company.CheckRequest{Name: "Acme"})
	s.Require().Error(err)
	s.Equal(ErrorRateLimited, Categorize(err))
	s.True(errors.Is(err, gobreaker.ErrOpenState))
	s.Equal(breakerMaxFailures, inner.fetches)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
