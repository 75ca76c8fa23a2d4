package services

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/lineup/internal/shared"
)

const (
	defaultMaxRetries  = 3
	defaultBaseBackoff = 500 * time.Millisecond
)

// RateLimitError is returned for 429 responses. It is never retried so callers can
// decide to serve cached data instead.
type RateLimitError struct {
	RetryAfter time.Duration
	Endpoint   string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: %s (retry after %s)", shared.ErrRateLimited, e.Endpoint, e.RetryAfter)
	}
	return fmt.Sprintf("%s: %s", shared.ErrRateLimited, e.Endpoint)
}

// Unwrap lets callers match [shared.ErrRateLimited].
func (e *RateLimitError) Unwrap() error {
	return shared.ErrRateLimited
}

// APIError is a non-2xx response other than 429.
type APIError struct {
	StatusCode int
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s returned status %d", shared.ErrAPIRequest, e.Endpoint, e.StatusCode)
}

// Unwrap lets callers match [shared.ErrAPIRequest].
func (e *APIError) Unwrap() error {
	return shared.ErrAPIRequest
}

// Is maps 404 to [shared.ErrNotFound].
func (e *APIError) Is(target error) bool {
	return target == shared.ErrNotFound && e.StatusCode == http.StatusNotFound
}

// shouldRetry reports whether a response or transport error is transient.
func shouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	return resp != nil && resp.StatusCode >= http.StatusInternalServerError
}

func parseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}

	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if when, err := http.ParseTime(retryAfter); err == nil {
		if until := time.Until(when); until > 0 {
			return until
		}
	}

	return 0
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
