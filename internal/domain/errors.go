package domain

import (
	"fmt"
	"strings"
)

// ValidationError reports the specific required fields missing from a
// request. It is always raised before any storage or network call.
type ValidationError struct {
	Fields []string `json:"fields"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// NewValidationError creates a ValidationError for the given field names
func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// UpstreamError wraps ErrUpstream with the diagnostic payload the
// upstream service returned, so handlers can relay it verbatim.
type UpstreamError struct {
	Service string
	Details any
}

// Error implements the error interface
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, ErrUpstream)
}

// Unwrap makes errors.Is(err, ErrUpstream) work for wrapped upstream failures
func (e *UpstreamError) Unwrap() error {
	return ErrUpstream
}
