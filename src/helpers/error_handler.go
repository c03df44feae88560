package helpers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"series-explorer/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type ExplorerError struct {
	Message string
	Cause   error
}

func (e *ExplorerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExplorerError) Unwrap() error {
	return e.Cause
}

// Distinct error types for errors.As
type ConfigurationError struct{ ExplorerError }
type NetworkError struct{ ExplorerError }
type DatabaseError struct{ ExplorerError }
type ValidationError struct{ ExplorerError }
type CatalogueLoadError struct{ ExplorerError }

// FetchError names the series whose request failed and fails the whole cycle.
type FetchError struct {
	ExplorerError
	SeriesID string
}

// ErrCancelled is the outcome of a fetch superseded by a newer one. It is
// neither a success nor a FetchError.
var ErrCancelled = errors.New("fetch cancelled")

// ErrCircuitOpen means requests are short-circuited until the upstream recovers.
var ErrCircuitOpen = errors.New("upstream unavailable")

// ErrRequestTimeout is the HTTP client's own deadline expiring while the
// caller's context is still live. Unlike cancellation it is worth retrying.
var ErrRequestTimeout = errors.New("request timed out")

// -----------------------------------------------------------------------------

func NewFetchError(seriesID string, cause error) *FetchError {
	return &FetchError{
		ExplorerError: ExplorerError{Message: fmt.Sprintf("failed to load series %s", seriesID), Cause: cause},
		SeriesID:      seriesID,
	}
}

func NewCatalogueLoadError(cause error) *CatalogueLoadError {
	return &CatalogueLoadError{ExplorerError{Message: "failed to load dataset catalogue", Cause: cause}}
}

func NewNetworkError(message string, cause error) *NetworkError {
	return &NetworkError{ExplorerError{Message: message, Cause: cause}}
}

func NewDatabaseError(message string, cause error) *DatabaseError {
	return &DatabaseError{ExplorerError{Message: message, Cause: cause}}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{ExplorerError{Message: message}}
}

func NewConfigurationError(message string) *ConfigurationError {
	return &ConfigurationError{ExplorerError{Message: message}}
}

// -----------------------------------------------------------------------------

// HTTPStatusError is returned for any non-2xx response.
type HTTPStatusError struct {
	StatusCode int
	Message    string
}

func (e *HTTPStatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// -----------------------------------------------------------------------------

// IsRetryable reports whether repeating the operation may succeed.
// Client errors and cancellation are final, server errors and transport
// failures are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRequestTimeout) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrCancelled) || errors.Is(err, ErrCircuitOpen) {
		return false
	}
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500 || statusErr.StatusCode == http.StatusTooManyRequests
	}
	var validationErr *ValidationError
	return !errors.As(err, &validationErr)
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

var retryLogger = logger.NewLogger("Retry")

// RetryWithBackoff attempts to execute the operation up to maxAttempts times with
// exponential backoff. It stops early on non-retryable errors and when ctx ends.
func RetryWithBackoff[T any](ctx context.Context, operation string, maxAttempts int, baseDelay time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		res, err := fn()
		if err == nil {
			return res, nil
		}

		lastErr = err
		if attempt == maxAttempts-1 || !IsRetryable(err) || ctx.Err() != nil {
			break
		}

		delay := baseDelay * (1 << attempt)
		retryLogger.Warning("Attempt %d/%d failed for %s: %v. Retrying in %v", attempt+1, maxAttempts, operation, err, delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, lastErr
}
