package db

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hivcare/hivcare/internal/platform/apperr"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// procedureMessage is the text a stored procedure raised, if any.
func procedureMessage(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.RaiseException {
		return pgErr.Message, true
	}
	return "", false
}

// IsUniqueViolation reports whether err is a unique-constraint violation.
func IsUniqueViolation(err error) bool {
	return pgCode(err) == pgerrcode.UniqueViolation
}

// Classify translates driver errors for the record kind named by what
// ("Patient", "Regimen") into apperr kinds. A business rule raised by a
// stored procedure becomes InvalidInput carrying the procedure's message.
// Anything unrecognised is returned unchanged.
func Classify(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(what + " not found")
	}
	if msg, ok := procedureMessage(err); ok {
		e := apperr.InvalidInput(msg)
		e.Cause = err
		return e
	}
	switch pgCode(err) {
	case pgerrcode.UniqueViolation:
		e := apperr.Conflict(what + " already exists")
		e.Cause = err
		return e
	case pgerrcode.ForeignKeyViolation:
		e := apperr.InvalidInput("Referenced record does not exist")
		e.Cause = err
		return e
	case pgerrcode.CheckViolation, pgerrcode.NotNullViolation, pgerrcode.InvalidTextRepresentation:
		e := apperr.InvalidInput("Invalid " + what + " data")
		e.Cause = err
		return e
	}
	return err
}
