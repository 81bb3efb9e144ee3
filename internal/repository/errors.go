package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when an operation targets a nonexistent row.
	ErrNotFound = errors.New("not found")
	// ErrConstraintViolation is returned on a uniqueness clash.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrInvalidArgument is returned for malformed input.
	ErrInvalidArgument = errors.New("invalid argument")
)

const uniqueViolation = "23505"

// Constraint names from db/migrations.
const (
	ConstraintUserNIK     = "users_nik_key"
	ConstraintAssetNumber = "assets_asset_number_key"
	ConstraintAssetQRCode = "assets_qr_code_key"
)

// ConstraintError carries the name of the violated constraint and matches
// ErrConstraintViolation with errors.Is.
type ConstraintError struct {
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	if e.Constraint == "" {
		return "constraint violation"
	}
	return fmt.Sprintf("constraint violation on %s", e.Constraint)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

func (e *ConstraintError) Is(target error) bool { return target == ErrConstraintViolation }

// Field names the user-facing column behind the constraint.
func (e *ConstraintError) Field() string {
	switch e.Constraint {
	case ConstraintUserNIK:
		return "nik"
	case ConstraintAssetNumber:
		return "asset_number"
	case ConstraintAssetQRCode:
		return "qr_code"
	}
	return ""
}

// Classify turns driver-level unique violations from either pgx or lib/pq
// into a *ConstraintError. Anything else is returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &ConstraintError{Constraint: pgErr.ConstraintName, Err: err}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return &ConstraintError{Constraint: pqErr.Constraint, Err: err}
	}
	return err
}

func invalidArgument(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
