package database

import (
	"errors"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// failure.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

// ConstraintName returns the violated constraint, or "" for other errors.
func ConstraintName(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}
