package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain operations
var (
	// ErrUpstream indicates the metadata service failed or returned a non-success status
	ErrUpstream = errors.New("metadata service request failed")

	// ErrNotFound indicates the requested item does not exist
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates malformed input (bad enum, negative duration, bad snapshot field)
	ErrValidation = errors.New("validation failed")

	// ErrPersistence indicates the local store could not be read or written
	ErrPersistence = errors.New("local store unavailable")

	// ErrUnauthorized indicates missing or invalid admin credentials
	ErrUnauthorized = errors.New("unauthorized")
)

// UpstreamError describes a failed metadata service call.
// Status is the HTTP status code, or 0 for network and decode failures.
type UpstreamError struct {
	Status int
	Path   string
	Err    error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("upstream %s: status %d", e.Path, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("upstream %s: %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("upstream %s: request failed", e.Path)
	}
}

// Unwrap exposes both the cause and ErrUpstream to errors.Is
func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUpstream}
	}
	return []error{ErrUpstream, e.Err}
}
