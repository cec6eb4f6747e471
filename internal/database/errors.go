package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"cabanas/internal/domain"

	"github.com/mattn/go-sqlite3"
)

const overlapMessage = "booking overlaps an active reservation"

var (
	ErrCabinNotFound      = domain.ErrCabinNotFound
	ErrBookingNotFound    = domain.ErrBookingNotFound
	ErrNotAvailable       = domain.ErrNotAvailable
	ErrDuplicateReference = domain.ErrDuplicateReference
)

// classify maps driver errors onto the domain taxonomy. Unknown errors pass through.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.Transient(err)
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return domain.Transient(err)
	}

	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	switch sqliteErr.Code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return domain.Transient(err)
	case sqlite3.ErrConstraint:
		msg := sqliteErr.Error()
		switch {
		case strings.Contains(msg, overlapMessage):
			return ErrNotAvailable
		case sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique && strings.Contains(msg, "reference"):
			return ErrDuplicateReference
		case sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey:
			return ErrCabinNotFound
		}
	}
	return err
}
