// internal/adapters/db/errors.go
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ammerola/stockledger/internal/core/domain"
)

// PostgreSQL SQLSTATE codes the ledger reacts to
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
)

// translateError maps driver errors onto the domain error kinds.
// Lost lock races become ErrConcurrentModification, a missing row becomes ErrNotFound,
// everything else is a PersistenceError.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return fmt.Errorf("%w: %s: %s", domain.ErrConcurrentModification, op, pgErr.Message)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s: %s", domain.ErrUnknownReference, op, pgErr.ConstraintName)
		case pgCheckViolation:
			return &domain.PersistenceError{Op: op, Err: fmt.Errorf("constraint %s violated: %w", pgErr.ConstraintName, err)}
		}
	}

	return &domain.PersistenceError{Op: op, Err: err}
}
