package genai

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoCandidates is returned when the service answers without any candidate.
	ErrNoCandidates = errors.New("no candidates in response")

	// ErrBlocked is returned when the prompt or the response was blocked by
	// safety filters.
	ErrBlocked = errors.New("content blocked by safety filters")

	// ErrEmptyPrompt is returned for requests without text to work on.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrMissingAPIKey is returned when a remote provider has no credentials.
	ErrMissingAPIKey = errors.New("API key is not set")
)

// APIError is a non-200 answer from the service.
type APIError struct {
	StatusCode int    `json:"code"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("genai api error (code %d, status %s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("genai api error (code %d): %s", e.StatusCode, e.Message)
}

// Retryable reports whether the request may succeed when sent again:
// rate limiting and server-side failures.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// IsRetryable reports whether err is an APIError that may be retried.
func IsRetryable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Retryable()
}
