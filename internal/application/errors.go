package application

import (
	"errors"
	"fmt"

	"github.com/example/room-reservation/internal/recurrence"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique attribute is taken.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a session token is past its TTL.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session token was revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
	// ErrInvalidTransition is returned when a lifecycle change violates the
	// reservation state machine.
	ErrInvalidTransition = errors.New("application: invalid status transition")
	// ErrStorageUnavailable wraps reservation store failures. The request may
	// be retried as a whole; no partial batch was committed.
	ErrStorageUnavailable = errors.New("application: storage unavailable")
)

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// ConflictError reports the first occurrence of a booking request that
// overlaps an existing reservation. The blocking reservation is carried so
// the user can be told exactly which slot is taken.
type ConflictError struct {
	Occurrence recurrence.Occurrence
	Blocking   Reservation
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("requested slot %s %s-%s conflicts with reservation %s (%s %s-%s)",
		e.Occurrence.Date, e.Occurrence.Start, e.Occurrence.End,
		e.Blocking.ID, e.Blocking.Date, e.Blocking.Start, e.Blocking.End)
}

// storageError tags unexpected persistence failures as retryable storage
// errors while preserving the cause.
func storageError(err error) error {
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
