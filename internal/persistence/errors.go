package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique constraint rejects an insert.
	ErrDuplicate = errors.New("persistence: duplicate")
	// ErrConstraintViolation is returned when a check constraint rejects a write.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKeyViolation is returned when a referenced record is missing.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
)

// OverlapError reports that a reservation batch insert found an existing
// non-rejected reservation occupying part of a requested slot. The blocking
// row is carried so callers can tell users exactly which slot is taken.
type OverlapError struct {
	Blocking Reservation
}

// Error implements the error interface.
func (e *OverlapError) Error() string {
	return fmt.Sprintf("persistence: slot overlaps reservation %s on %s %s-%s",
		e.Blocking.ID, e.Blocking.Date, e.Blocking.Start, e.Blocking.End)
}
