package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/DEMONNN69/knowyourcompany/internal/company"
	"github.com/DEMONNN69/knowyourcompany/internal/company/handler/mocks"
	"github.com/DEMONNN69/knowyourcompany/internal/jwtauth"
	dErrors "github.com/DEMONNN69/knowyourcompany/pkg/domain-errors"
	"github.com/DEMONNN69/knowyourcompany/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/company-mocks.go -package=mocks Service
type CompanyHandlerSuite struct {
	suite.Suite

	jwt *jwtauth.Service
}

func (s *CompanyHandlerSuite) SetupSuite() {
	s.jwt = jwtauth.NewService("test-signing-key", "knowyourcompany-test")
}

func TestCompanyHandlerSuite(t *testing.T) {
	suite.Run(t, new(CompanyHandlerSuite))
}

func (s *CompanyHandlerSuite) newTestRouter() (chi.Router, *mocks.MockService) {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := New(mockService, logger, nil, s.jwt)
	r := chi.NewRouter()
	handler.Register(r)
	return r, mockService
}

func sampleInsight() *company.Insight {
	score := 22.5
	companyType := company.TypeTraining
	return &company.Insight{
		Name:          "Acme Institute",
		CanonicalName: "acme-institute",
		Website:       "https://acme.example.com",
		Score:         &score,
		Risk:          company.RiskHigh,
		CompanyType:   &companyType,
		Flags:         []string{"limited_signals"},
		Sources: []company.Signal{{
			Source:    company.SourceReddit,
			URL:       "https://old.reddit.com/r/jobs/comments/abc",
			Title:     "Avoid this place",
			Sentiment: company.SentimentNegative,
		}},
		LastCheckedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *CompanyHandlerSuite) TestCheckCompany() {
	router, mockService := s.newTestRouter()
	mockService.EXPECT().
		Resolve(gomock.Any(), company.CheckRequest{Name: "Acme Institute", Category: "training"}).
		Return(sampleInsight(), nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/v1/companies/check", CheckCompanyRequest{
		Name:     "Acme Institute",
		Category: "training",
	})
	rr := testutil.DoRequest(router, req)

	s.Equal(http.StatusOK, rr.Code)
	var resp InsightResponse
	testutil.DecodeJSONBody(s.T(), rr, &resp)
	s.Equal("acme-institute", resp.CanonicalName)
	s.Require().NotNil(resp.Score)
	s.InDelta(22.5, *resp.Score, 0.001)
	s.Equal("high", resp.ScamRisk)
	s.Require().NotNil(resp.CompanyType)
	s.Equal("training", *resp.CompanyType)
	s.Len(resp.Sources, 1)
	s.Equal("reddit", resp.Sources[0].Source)
}

func (s *CompanyHandlerSuite) TestCheckCompanyTrimsName() {
	router, mockService := s.newTestRouter()
	mockService.EXPECT().
		Resolve(gomock.Any(), company.CheckRequest{Name: "Acme Institute"}).
		Return(sampleInsight(), nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/v1/companies/check", CheckCompanyRequest{
		Name: "  Acme Institute  ",
	})
	rr := testutil.DoRequest(router, req)

	s.Equal(http.StatusOK, rr.Code)
}

func (s *CompanyHandlerSuite) TestCheckCompanyValidation() {
	longName := make([]byte, maxNameLength+1)
	for i := range longName {
		longName[i] = 'a'
	}

	cases := []struct {
		name string
		body CheckCompanyRequest
	}{
		{"missing name", CheckCompanyRequest{Website: "https://acme.example.com"}},
		{"blank name", CheckCompanyRequest{Name: "   "}},
		{"name too long", CheckCompanyRequest{Name: string(longName)}},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			router, _ := s.newTestRouter()
			req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/v1/companies/check", tc.body)
			rr := testutil.DoRequest(router, req)
			testutil.RequireErrorCode(s.T(), rr, http.StatusBadRequest, "bad_request")
		})
	}
}

func (s *CompanyHandlerSuite) TestCheckCompanyMalformedBody() {
	router, _ := s.newTestRouter()
	req := testutil.NewRequest(s.T(), http.MethodPost, "/api/v1/companies/check")
	rr := testutil.DoRequest(router, req)
	testutil.RequireErrorCode(s.T(), rr, http.StatusBadRequest, "bad_request")
}

func (s *CompanyHandlerSuite) TestGetCompany() {
	router, mockService := s.newTestRouter()
	mockService.EXPECT().
		GetCached(gomock.Any(), "acme-institute").
		Return(sampleInsight(), nil)

	req := testutil.NewRequest(s.T(), http.MethodGet, "/api/v1/companies/acme-institute")
	rr := testutil.DoRequest(router, req)

	s.Equal(http.StatusOK, rr.Code)
	var resp InsightResponse
	testutil.DecodeJSONBody(s.T(), rr, &resp)
	s.Equal("acme-institute", resp.CanonicalName)
}

func (s *CompanyHandlerSuite) TestGetCompanyNotFound() {
	router, mockService := s.newTestRouter()
	mockService.EXPECT().
		GetCached(gomock.Any(), "unknown-co").
		Return(nil, dErrors.New(dErrors.CodeNotFound, "company not found"))

	req := testutil.NewRequest(s.T(), http.MethodGet, "/api/v1/companies/unknown-co")
	rr := testutil.DoRequest(router, req)

	testutil.RequireErrorCode(s.T(), rr, http.StatusNotFound, "not_found")
}

func (s *CompanyHandlerSuite) TestCheckCompanyMasksInternalErrors() {
	router, mockService := s.newTestRouter()
	mockService.EXPECT().
		Resolve(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("pq: connection refused"))

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/v1/companies/check", CheckCompanyRequest{
		Name: "Acme Institute",
	})
	rr := testutil.DoRequest(router, req)

	testutil.RequireErrorCode(s.T(), rr, http.StatusInternalServerError, "internal_error")
	s.NotContains(rr.Body.String(), "connection refused")
}

func (s *CompanyHandlerSuite) TestRefreshRequiresAuth() {
	router, _ := s.newTestRouter()

	req := testutil.NewRequest(s.T(), http.MethodPost, "/api/v1/companies/acme-institute/refresh")
	rr := testutil.DoRequest(router, req)
	s.Equal(http.StatusUnauthorized, rr.Code)

	req = testutil.NewRequest(s.T(), http.MethodPost, "/api/v1/companies/acme-institute/refresh")
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr = testutil.DoRequest(router, req)
	s.Equal(http.StatusUnauthorized, rr.Code)
}

func (s *CompanyHandlerSuite) TestRefreshWithValidToken() {
	router, mockService := s.newTestRouter()
	mockService.EXPECT().
		ForceRefresh(gomock.Any(), "acme-institute").
		Return(sampleInsight(), nil)

	token, err := s.jwt.GenerateToken("ops@example.com", time.Hour)
	s.Require().NoError(err)

	req := testutil.NewRequest(s.T(), http.MethodPost, "/api/v1/companies/acme-institute/refresh")
	req.Header.Set("Authorization", "Bearer "+token)
	rr := testutil.DoRequest(router, req)

	s.Equal(http.StatusOK, rr.Code)
	var resp InsightResponse
	testutil.DecodeJSONBody(s.T(), rr, &resp)
	s.Equal("acme-institute", resp.CanonicalName)
}

// Calls the refresh handler directly with an authenticated context, skipping
// the middleware stack.
func (s *CompanyHandlerSuite) TestHandleRefreshWithAuthenticatedContext() {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	mockService.EXPECT().
		ForceRefresh(gomock.Any(), "acme-institute").
		Return(sampleInsight(), nil)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(mockService, logger, nil, s.jwt)

	req := testutil.NewRequest(s.T(), http.MethodPost, "/api/v1/companies/acme-institute/refresh")
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("key", "acme-institute")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	req = testutil.WithSubject(req, "ops@example.com")
	req = testutil.WithRequestID(req, "req-123")

	rr := httptest.NewRecorder()
	h.handleRefresh(rr, req)

	s.Equal(http.StatusOK, rr.Code)
}

func (s *CompanyHandlerSuite) TestRefreshWithExpiredToken() {
	router, _ := s.newTestRouter()

	token, err := s.jwt.GenerateToken("ops@example.com", -time.Minute)
	s.Require().NoError(err)

	req := testutil.NewRequest(s.T(), http.MethodPost, "/api/v1/companies/acme-institute/refresh")
	req.Header.Set("Authorization", "Bearer "+token)
	rr := testutil.DoRequest(router, req)

	s.Equal(http.StatusUnauthorized, rr.Code)
}
