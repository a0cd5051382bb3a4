// errors.go maps PostgreSQL constraint failures onto the named, recoverable conditions the
// directory surfaces to callers.
package repositories

import (
	"errors"

	"github.com/lib/pq"
)

// PostgreSQL SQLSTATE codes inspected by the repositories.
const (
	pqUniqueViolation     = pq.ErrorCode("23505")
	pqForeignKeyViolation = pq.ErrorCode("23503")
)

var (
	// ErrAlreadyExists matches every ConflictError.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotFound is returned by updates and deletes that matched no row in scope.
	// Single-row lookups return (nil, nil) instead.
	ErrNotFound = errors.New("not found")

	// ErrOutOfScope is returned when a write references a row owned by another tenant
	// (or by nobody).
	ErrOutOfScope = errors.New("referenced record is not in the caller's organization")

	// ErrInvalidReference is returned when a write references a taxonomy row that does not exist.
	ErrInvalidReference = errors.New("referenced record does not exist")
)

// ConflictError reports a unique-constraint violation on Entity.
type ConflictError struct {
	Entity     string
	Constraint string
}

func (e *ConflictError) Error() string {
	return e.Entity + " already exists"
}

// Is lets errors.Is(err, ErrAlreadyExists) match any conflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// asConflict converts a unique violation into a ConflictError for entity and returns nil
// for any other error.
func asConflict(err error, entity string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return &ConflictError{Entity: entity, Constraint: pqErr.Constraint}
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation
}
