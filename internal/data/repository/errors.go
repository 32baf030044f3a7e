package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUniqueViolation     = errors.New("unique constraint violation")
	ErrCheckViolation      = errors.New("check constraint violation")
	ErrForeignKeyViolation = errors.New("foreign key violation")
	ErrDataViolation       = errors.New("value does not fit column type")
	ErrNoRowsAffected      = errors.New("no rows affected")
	// ErrBalanceFloor means a debit would take the account's available
	// balance under entity.BalanceFloor.
	ErrBalanceFloor        = errors.New("debit would cross the balance floor")
)

// Postgres SQLSTATE codes, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
	pgForeignKeyViolation = "23503"
	pgDataExceptionClass  = "22"
)

// Constraint names from schema.sql that callers branch on.
const (
	ConstraintActiveSeat   = "bookings_active_seat_key"
	ConstraintSerialNo     = "bookings_serial_no_key"
	ConstraintBalanceFloor = "accounts_balance_floor"
)

// ConstraintError is a translated storage failure. errors.Is matches both the
// sentinel kind and the original driver error.
type ConstraintError struct {
	Kind       error
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	if e.Constraint == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s on %s: %v", e.Kind, e.Constraint, e.Err)
}

func (e *ConstraintError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// translatePgError maps driver errors onto the sentinels above and leaves
// everything else untouched.
func translatePgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	var kind error
	switch {
	case pgErr.Code == pgUniqueViolation:
		kind = ErrUniqueViolation
	case pgErr.Code == pgCheckViolation:
		kind = ErrCheckViolation
	case pgErr.Code == pgForeignKeyViolation:
		kind = ErrForeignKeyViolation
	case strings.HasPrefix(pgErr.Code, pgDataExceptionClass):
		kind = ErrDataViolation
	default:
		return err
	}

	return &ConstraintError{Kind: kind, Constraint: pgErr.ConstraintName, Err: err}
}

// IsConstraint reports whether err is a translated violation of the named constraint.
func IsConstraint(err error, name string) bool {
	var ce *ConstraintError
	return errors.As(err, &ce) && ce.Constraint == name
}
