package embedder

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"nil", nil, false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"wrapped cancellation", fmt.Errorf("call failed: %w", context.Canceled), false},
		{"rate limited by code", &APIError{StatusCode: 429, Provider: "openai"}, true},
		{"request timeout by code", &APIError{StatusCode: 408, Provider: "openai"}, true},
		{"server error by code", &APIError{StatusCode: 503, Provider: "jina"}, true},
		{"bad request by code", &APIError{StatusCode: 400, Provider: "openai"}, false},
		{"unauthorized by code", &APIError{StatusCode: 401, Provider: "openai"}, false},
		{"rate marker in text", errors.New("provider rate limit reached"), true},
		{"timeout marker in text", errors.New("request timeout after 30s"), true},
		{"connection marker in text", errors.New("connection refused"), true},
		{"overloaded marker in text", errors.New("model Overloaded"), true},
		{"plain validation error", errors.New("input too long for model"), false},
		{"invalid input sentinel", fmt.Errorf("%w: empty text", ErrInvalidInput), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.transient, IsTransient(tt.err))
		})
	}
}

func TestAPIErrorUnwrap(t *testing.T) {
	err := &APIError{StatusCode: 500, Provider: "openai", Body: "oops"}
	assert.ErrorIs(t, err, ErrProviderFailed)
	assert.Contains(t, err.Error(), "openai")
	assert.Contains(t, err.Error(), "500")
}

func TestAPIErrorTruncatesBody(t *testing.T) {
	body := make([]byte, 1000)
	for i := range body {
		body[i] = 'x'
	}
	err := &APIError{StatusCode: 500, Provider: "jina", Body: string(body)}
	assert.Less(t, len(err.Error()), 300)
}

func TestBackoffDelayGrowsAndCaps(t *testing.T) {
	prev := backoffDelay(0)
	for attempt := 1; attempt < 10; attempt++ {
		d := backoffDelay(attempt)
		assert.LessOrEqual(t, d, maxRetryDelay+maxRetryDelay/5,
			"attempt %d exceeds capped delay", attempt)
		if attempt <= 4 {
			assert.Greater(t, d, prev/2, "delay should grow early on")
		}
		prev = d
	}
}
