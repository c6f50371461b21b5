package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	sqlStateUniqueViolation = "23505"
	sqlStateCheckViolation  = "23514"
	sqlStateForeignKey      = "23503"
)

// IsUniqueViolation reports whether the provided error is a unique violation.
// When constraintName is provided the violated constraint must match it.
func IsUniqueViolation(err error, constraintName string) bool {
	return matchesState(err, sqlStateUniqueViolation, constraintName, "duplicate key value", "UNIQUE constraint failed")
}

// IsCheckViolation reports whether a CHECK constraint rejected the statement.
func IsCheckViolation(err error, constraintName string) bool {
	return matchesState(err, sqlStateCheckViolation, constraintName, "violates check constraint", "CHECK constraint failed")
}

// IsForeignKeyViolation reports whether a referenced row is missing.
func IsForeignKeyViolation(err error) bool {
	return matchesState(err, sqlStateForeignKey, "", "violates foreign key constraint", "FOREIGN KEY constraint failed")
}

func matchesState(err error, state, constraintName string, fallbacks ...string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != state {
			return false
		}
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if string(pqErr.Code) != state {
			return false
		}
		return constraintName == "" || pqErr.Constraint == constraintName
	}

	msg := err.Error()
	matched := false
	for _, fb := range fallbacks {
		if strings.Contains(msg, fb) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	if constraintName != "" && strings.Contains(msg, "constraint \"") {
		return strings.Contains(msg, constraintName)
	}
	return true
}
