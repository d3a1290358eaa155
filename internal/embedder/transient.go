package embedder

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// APIError carries the HTTP status and response body of a failed
// provider call so transience can be judged from the code first.
type APIError struct {
	StatusCode int
	Provider   string
	Body       string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, body)
}

// Unwrap lets callers match with errors.Is(err, ErrProviderFailed).
func (e *APIError) Unwrap() error {
	return ErrProviderFailed
}

// transientMarkers are matched against the error text when no status
// code is available. Rate limiting and infrastructure hiccups retry;
// bad requests do not.
var transientMarkers = []string{
	"429",
	"rate",
	"temporarily",
	"timeout",
	"5xx",
	"internal",
	"overloaded",
	"connection",
	"reset",
	"unavailable",
}

// IsTransient reports whether err looks like a temporary provider
// failure worth retrying. Context cancellation is never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429 || apiErr.StatusCode == 408:
			return true
		case apiErr.StatusCode >= 500:
			return true
		case apiErr.StatusCode >= 400:
			return false
		}
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
