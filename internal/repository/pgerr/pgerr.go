// Package pgerr classifies postgres errors returned through pgx.
package pgerr

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	invalidTextRep      = "22P02"
)

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return hasCode(err, uniqueViolation)
}

// IsMissingReference reports whether err is a foreign key violation or a
// malformed uuid, both of which mean the referenced row does not exist.
func IsMissingReference(err error) bool {
	return hasCode(err, foreignKeyViolation) || hasCode(err, invalidTextRep)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
