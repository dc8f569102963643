package server

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrTooLarge indicates the request body exceeded the upload limit
type ErrTooLarge struct {
	Limit int64
}

func (e *ErrTooLarge) Error() string {
	return fmt.Sprintf("request body exceeds %d bytes", e.Limit)
}

// ErrJobFetch indicates the job posting URL could not be retrieved
type ErrJobFetch struct {
	URL   string
	Cause error
}

func (e *ErrJobFetch) Error() string {
	return fmt.Sprintf("failed to fetch job posting from %s: %v", e.URL, e.Cause)
}

func (e *ErrJobFetch) Unwrap() error {
	return e.Cause
}

// ErrNotFound indicates the requested resource does not exist
type ErrNotFound struct {
	What string
}

func (e *ErrNotFound) Error() string {
	return e.What + " not found"
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation *ErrValidation
		tooLarge   *ErrTooLarge
		jobFetch   *ErrJobFetch
		notFound   *ErrNotFound
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &jobFetch):
		return http.StatusBadGateway
	case errors.As(err, &notFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
