// Package store provides abstractions and implementations for data persistence
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/recall-api/internal/platform/logger"
)

// TxFn is a function that executes within a database transaction.
// It receives the context and a transaction, and returns an error if the operation fails.
// The transaction is committed if the function returns nil, or rolled back if it returns an error.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// RunInTransaction executes the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// Otherwise, the transaction is committed.
// The function handles rollbacks in case of panic and logs appropriate information.
func RunInTransaction(ctx context.Context, db *sql.DB, fn TxFn) error {
	log := logger.FromContext(ctx)

	// Begin a transaction
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction",
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Set up defer to handle panics and roll back the transaction if needed
	defer func() {
		if p := recover(); p != nil {
			// Attempt to roll back the transaction in case of panic
			txErr := tx.Rollback()
			if txErr != nil {
				log.Error("failed to roll back transaction after panic",
					slog.String("error", txErr.Error()),
					slog.Any("panic", p))
			} else {
				log.Error("rolled back transaction after panic",
					slog.Any("panic", p))
			}
			// Re-panic to maintain the behavior
			// ALLOW-PANIC: Propagating caught panic from transaction
			panic(p)
		}
	}()

	// Execute the provided function within the transaction
	err = fn(ctx, tx)
	if err != nil {
		// If the function returns an error, roll back the transaction
		rollbackErr := tx.Rollback()
		if rollbackErr != nil {
			log.Error("failed to roll back transaction",
				slog.String("rollback_error", rollbackErr.Error()),
				slog.String("original_error", err.Error()))
			// Return the combined errors to provide complete information
			return fmt.Errorf(
				"error rolling back transaction: %v (original error: %w)",
				rollbackErr,
				err,
			)
		}
		log.Debug("rolled back transaction due to error",
			slog.String("error", err.Error()))
		// Return the original error
		return err
	}

	// If the function executed successfully, commit the transaction
	err = tx.Commit()
	if err != nil {
		log.Error("failed to commit transaction",
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to commit transaction: %w", MapCommitError(err))
	}

	log.Debug("transaction committed successfully")
	return nil
}

// RunInTransactionWithRetry runs fn through RunInTransaction and, when the
// attempt fails with an error matching ErrRetryable, starts over with a fresh
// transaction. At most maxAttempts transactions are started; values below 1
// are treated as 1. The last error is returned once attempts are exhausted.
func RunInTransactionWithRetry(ctx context.Context, db *sql.DB, maxAttempts int, fn TxFn) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	log := logger.FromContext(ctx)

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = RunInTransaction(ctx, db, fn)
		if err == nil || !IsRetryableError(err) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %v", ctxErr, err)
		}
		log.Warn("retrying transaction after transient failure",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxAttempts),
			slog.String("error", err.Error()))
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrTransactionFailed, maxAttempts, err)
}

// retryableCommitCodes are SQLSTATE classes Postgres reports when a commit
// loses a serialization race.
var retryableCommitCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
}

// sqlStateError is satisfied by driver errors exposing a SQLSTATE code.
type sqlStateError interface {
	SQLState() string
}

// MapCommitError marks commit failures caused by serialization conflicts as
// retryable and returns every other error unchanged.
func MapCommitError(err error) error {
	var stateErr sqlStateError
	if errors.As(err, &stateErr) && retryableCommitCodes[stateErr.SQLState()] {
		return fmt.Errorf("%w: %w", ErrRetryable, err)
	}
	return err
}
