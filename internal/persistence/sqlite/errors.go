package sqlite

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/example/room-reservation/internal/persistence"
)

// mapError translates driver errors into the persistence sentinels. SQLite
// reports constraint failures only through the error text, so the mapping
// matches on the well-known fragments.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return persistence.ErrDuplicate
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return persistence.ErrForeignKeyViolation
	case strings.Contains(msg, "CHECK constraint failed"):
		return persistence.ErrConstraintViolation
	default:
		return err
	}
}
