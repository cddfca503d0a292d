package testutil

import (
	"context"
	"net/http"

	"github.com/DEMONNN69/knowyourcompany/internal/platform/middleware"
)

// WithSubject adds an authenticated subject to the request context,
// simulating what RequireAuth does for a valid bearer token.
func WithSubject(req *http.Request, subject string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeySubject, subject)
	return req.WithContext(ctx)
}

// WithRequestID stamps a request id onto the request context the way the
// RequestID middleware does.
func WithRequestID(req *http.Request, id string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeyRequestID, id)
	return req.WithContext(ctx)
}
