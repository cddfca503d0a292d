// Package httptransport assembles the public HTTP surface: the company API,
// health checking, and Prometheus scraping.
package httptransport

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	companyhandler "github.com/DEMONNN69/knowyourcompany/internal/company/handler"
	"github.com/DEMONNN69/knowyourcompany/internal/platform/redis"
	"github.com/DEMONNN69/knowyourcompany/pkg/platform/httputil"
)

const healthCheckTimeout = 2 * time.Second

// Dependencies carries the backends the router needs beyond the company
// handler. Redis and DB are optional; nil means the tier is not configured
// and is reported as "disabled" rather than failing the health check.
type Dependencies struct {
	Company *companyhandler.Handler
	Redis   *redis.Client
	DB      *sql.DB
}

// NewRouter wires all public endpoints.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	deps.Company.Register(r)

	r.Get("/healthz", handleHealth(deps))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// handleHealth reports per-backend status. The endpoint stays 200 as long as
// the process can serve requests; degraded backends are visible in the body
// because the aggregator runs without them.
func handleHealth(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		checks := map[string]string{
			"redis":    "disabled",
			"postgres": "disabled",
		}
		if deps.Redis != nil {
			checks["redis"] = "ok"
			if err := deps.Redis.Health(ctx); err != nil {
				checks["redis"] = "unhealthy"
			}
		}
		if deps.DB != nil {
			checks["postgres"] = "ok"
			if err := deps.DB.PingContext(ctx); err != nil {
				checks["postgres"] = "unhealthy"
			}
		}

		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"checks": checks,
		})
	}
}
