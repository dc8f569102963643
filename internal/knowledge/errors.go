package knowledge

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by a Source when a topic has no content.
var ErrNotFound = errors.New("knowledge topic not found")

// TransportError wraps a failure of a knowledge source.
type TransportError struct {
	Source string
	Topic  Topic
	Cause  error
}

func (e *TransportError) Error() string {
	if e.Topic == "" {
		return fmt.Sprintf("knowledge source %s: %v", e.Source, e.Cause)
	}
	return fmt.Sprintf("knowledge source %s: topic %s: %v", e.Source, e.Topic, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}
