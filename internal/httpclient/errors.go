package httpclient

import (
	"errors"
	"fmt"
)

// Failure taxonomy for provider calls. Callers branch on these with
// errors.Is; everything else reduces to one of the four.
var (
	// ErrPermanent marks a 4xx response other than 429. The request is
	// malformed or unauthorized and is never retried.
	ErrPermanent = errors.New("permanent failure")

	// ErrTransient marks a timeout, connection error or 5xx that
	// survived the full retry budget.
	ErrTransient = errors.New("transient failure")

	// ErrRateLimited marks a 429 that could not be waited out before
	// the context expired.
	ErrRateLimited = errors.New("rate limited")

	// ErrNoData marks a 404: the provider has no record for the
	// requested entity. Not a failure, callers treat it as absence.
	ErrNoData = errors.New("no data")
)

// StatusError carries the HTTP status of a failed provider call.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if len(e.Body) > 200 {
		return fmt.Sprintf("status %d: %s...", e.StatusCode, e.Body[:200])
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}
