// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a code was not found in any catalog layer.
	ErrNotFound = errors.New("code not found")

	// ErrInvalidInput indicates user provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrSeedUnavailable indicates the seed cache source could not be read.
	ErrSeedUnavailable = errors.New("seed cache unavailable")
)

// QueryError represents a failed request to an external catalog endpoint.
type QueryError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *QueryError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("query error (endpoint=%s, status=%d): %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("query error (endpoint=%s): %v", e.Endpoint, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError creates a new query error.
func NewQueryError(endpoint string, statusCode int, err error) *QueryError {
	return &QueryError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Err:        err,
	}
}

// ParseError represents a malformed response from an external endpoint.
type ParseError struct {
	Endpoint string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error (endpoint=%s): %v", e.Endpoint, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new parse error.
func NewParseError(endpoint string, err error) *ParseError {
	return &ParseError{Endpoint: endpoint, Err: err}
}
