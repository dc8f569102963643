package rewriting

import (
	"fmt"
	"strings"
)

// ViolationError lists the tokens of a candidate rewrite that are not backed by
// the source résumé.
type ViolationError struct {
	Tokens []string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("rewrite introduces unsupported content: %s", strings.Join(e.Tokens, ", "))
}

// ResponseError is returned when the completion output does not match the
// expected response structure.
type ResponseError struct {
	Message string
	Cause   error
}

func (e *ResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ResponseError) Unwrap() error {
	return e.Cause
}
