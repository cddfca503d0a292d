// Package handler exposes the company resolution pipeline over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DEMONNN69/knowyourcompany/internal/company"
	"github.com/DEMONNN69/knowyourcompany/internal/platform/metrics"
	"github.com/DEMONNN69/knowyourcompany/internal/platform/middleware"
	dErrors "github.com/DEMONNN69/knowyourcompany/pkg/domain-errors"
	"github.com/DEMONNN69/knowyourcompany/pkg/platform/httputil"
)

// Service defines the aggregator operations the handler needs.
type Service interface {
	Resolve(ctx context.Context, req company.CheckRequest) (*company.Insight, error)
	ForceRefresh(ctx context.Context, key string) (*company.Insight, error)
	GetCached(ctx context.Context, key string) (*company.Insight, error)
}

// Handler handles company endpoints.
type Handler struct {
	logger       *slog.Logger
	service      Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a company Handler.
func New(service Service, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		service:      service,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register registers the company routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	companyRouter := chi.NewRouter()
	companyRouter.Use(middleware.Recovery(h.logger))
	companyRouter.Use(middleware.RequestID)
	companyRouter.Use(middleware.Logger(h.logger))
	companyRouter.Use(middleware.Latency(h.metrics))

	companyRouter.Post("/api/v1/companies/check", h.handleCheck)
	companyRouter.Get("/api/v1/companies/{key}", h.handleGet)

	// Forced refreshes bypass the freshness policy and hit every external
	// source, so they require an authenticated caller.
	companyRouter.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		protected.Post("/api/v1/companies/{key}/refresh", h.handleRefresh)
	})

	r.Mount("/", companyRouter)
}

// handleCheck resolves a company, fetching from external sources when no
// fresh insight exists.
func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var checkReq CheckCompanyRequest
	if err := httputil.DecodeJSON(r, &checkReq); err != nil {
		h.logger.WarnContext(ctx, "invalid check request body",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := checkReq.Validate(); err != nil {
		h.logger.WarnContext(ctx, "check request rejected",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	insight, err := h.service.Resolve(ctx, checkReq.toDomain())
	if err != nil {
		h.writeServiceError(ctx, w, "resolve company", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromInsight(insight))
}

// handleGet returns the stored insight without triggering any fetch.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key := chi.URLParam(r, "key")
	insight, err := h.service.GetCached(ctx, key)
	if err != nil {
		h.writeServiceError(ctx, w, "get cached company", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromInsight(insight))
}

// handleRefresh forces a full re-resolution of an already-known company.
func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	key := chi.URLParam(r, "key")
	subject := middleware.GetSubject(ctx)
	h.logger.InfoContext(ctx, "forced refresh requested",
		"request_id", requestID,
		"company", key,
		"subject", subject,
	)

	insight, err := h.service.ForceRefresh(ctx, key)
	if err != nil {
		h.writeServiceError(ctx, w, "force refresh company", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromInsight(insight))
}

// writeServiceError renders domain errors as-is and masks everything else as
// internal.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	requestID := middleware.GetRequestID(ctx)

	code := dErrors.GetCode(err)
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeNotFound:
		h.logger.WarnContext(ctx, op+" rejected",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
	default:
		h.logger.ErrorContext(ctx, op+" failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, op+" failed"))
	}
}
