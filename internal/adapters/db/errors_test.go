package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/ammerola/stockledger/internal/core/domain"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		expectedIs  error
		persistence bool
	}{
		{
			name:       "no_rows_is_not_found",
			err:        pgx.ErrNoRows,
			expectedIs: domain.ErrNotFound,
		},
		{
			name:       "wrapped_no_rows_is_not_found",
			err:        fmt.Errorf("scan: %w", pgx.ErrNoRows),
			expectedIs: domain.ErrNotFound,
		},
		{
			name:       "serialization_failure_is_conflict",
			err:        &pgconn.PgError{Code: pgSerializationFailure, Message: "could not serialize access"},
			expectedIs: domain.ErrConcurrentModification,
		},
		{
			name:       "deadlock_is_conflict",
			err:        &pgconn.PgError{Code: pgDeadlockDetected},
			expectedIs: domain.ErrConcurrentModification,
		},
		{
			name:       "lock_not_available_is_conflict",
			err:        &pgconn.PgError{Code: pgLockNotAvailable},
			expectedIs: domain.ErrConcurrentModification,
		},
		{
			name:       "foreign_key_is_unknown_reference",
			err:        &pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: "stock_movements_product_id_fkey"},
			expectedIs: domain.ErrUnknownReference,
		},
		{
			name:        "check_violation_is_persistence_error",
			err:         &pgconn.PgError{Code: pgCheckViolation, ConstraintName: "inventory_stock_check"},
			expectedIs:  domain.ErrPersistenceFailure,
			persistence: true,
		},
		{
			name:        "other_driver_error_is_persistence_error",
			err:         errors.New("connection reset by peer"),
			expectedIs:  domain.ErrPersistenceFailure,
			persistence: true,
		},
		{
			name:       "cancellation_is_kept",
			err:        context.Canceled,
			expectedIs: context.Canceled,
		},
		{
			name:       "deadline_is_kept",
			err:        fmt.Errorf("query: %w", context.DeadlineExceeded),
			expectedIs: context.DeadlineExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError("op", tt.err)

			assert.ErrorIs(t, got, tt.expectedIs)

			var pe *domain.PersistenceError
			assert.Equal(t, tt.persistence, errors.As(got, &pe))
			if tt.persistence {
				assert.Equal(t, "op", pe.Op)
			}
		})
	}

	assert.NoError(t, translateError("op", nil))
}
