package connectors

import (
	"context"
	"errors"
	"fmt"

	"github.com/DEMONNN69/knowyourcompany/internal/company"
)

// ErrorCategory is the normalized failure taxonomy for connector fetches.
type ErrorCategory string

const (
	// ErrorTimeout indicates the platform took too long to respond.
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorOutage indicates the platform is unreachable or serving errors.
	ErrorOutage ErrorCategory = "outage"

	// ErrorParse indicates the platform responded but the payload could not
	// be turned into signals.
	ErrorParse ErrorCategory = "parse"

	// ErrorRateLimited indicates the platform or our own limiter pushed back.
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorBlocked indicates robots.txt or a bot wall refused the fetch.
	ErrorBlocked ErrorCategory = "blocked"

	// ErrorInternal indicates an unexpected local failure.
	ErrorInternal ErrorCategory = "internal"
)

// ConnectorError wraps a fetch failure with its source and normalized
// category. The aggregator logs these and moves on; they never abort a
// resolve.
type ConnectorError struct {
	Source   company.Source
	Category ErrorCategory
	Message  string
	Err      error
}

func (e *ConnectorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connector %s [%s]: %s: %v", e.Source, e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("connector %s [%s]: %s", e.Source, e.Category, e.Message)
}

func (e *ConnectorError) Unwrap() error { return e.Err }

// newError categorizes err when no explicit category fits better.
func newError(source company.Source, category ErrorCategory, message string, err error) *ConnectorError {
	return &ConnectorError{Source: source, Category: category, Message: message, Err: err}
}

// Categorize maps an arbitrary fetch error onto the taxonomy. Context
// deadline and cancellation count as timeouts; everything unrecognized is
// internal.
func Categorize(err error) ErrorCategory {
	var ce *ConnectorError
	if errors.As(err, &ce) {
		return ce.Category
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorTimeout
	}
	return ErrorInternal
}
