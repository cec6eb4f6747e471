package pgstore

import (
	"context"
	"errors"

	"cabanas/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeExclusionViolation   = "23P01"
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// classify maps pgx errors onto the domain taxonomy. Unknown errors pass through.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.Transient(err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeExclusionViolation:
			return domain.ErrNotAvailable
		case codeUniqueViolation:
			if pgErr.ConstraintName == "bookings_reference_key" {
				return domain.ErrDuplicateReference
			}
		case codeForeignKeyViolation:
			return domain.ErrCabinNotFound
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
			return domain.Transient(err)
		}
		return err
	}

	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return domain.Transient(err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return domain.Transient(err)
	}
	return err
}
