package llm

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("empty completion response")
	// ErrBlocked is returned when a safety filter stopped the prompt or response.
	ErrBlocked = errors.New("completion blocked by safety filter")
	// ErrMissingAPIKey is returned when a client is opened without credentials.
	ErrMissingAPIKey = errors.New("completion API key is required")
)

// CompletionError is returned when a completion call fails or times out.
type CompletionError struct {
	Model string
	Cause error
}

func (e *CompletionError) Error() string {
	if e.Timeout() {
		return fmt.Sprintf("completion with model %s timed out: %v", e.Model, e.Cause)
	}
	return fmt.Sprintf("completion with model %s failed: %v", e.Model, e.Cause)
}

func (e *CompletionError) Unwrap() error {
	return e.Cause
}

// Timeout reports whether the call exceeded its deadline.
func (e *CompletionError) Timeout() bool {
	return errors.Is(e.Cause, context.DeadlineExceeded)
}
