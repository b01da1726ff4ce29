package repository

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const transientRetryDelay = 50 * time.Millisecond

// isTransient reports whether the storage failure is worth one more
// attempt: dropped connections, serialization failures, deadlocks.
// Everything else propagates unchanged.
func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return true
		}
		// Class 08: connection exceptions.
		if len(pgErr.Code) == 5 && pgErr.Code[:2] == "08" {
			return true
		}
	}
	return false
}

// isUniqueViolation reports a unique-constraint conflict, which callers
// treat as retryable with a fresh ticket number rather than fatal.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// withRetry runs fn with a single bounded retry on transient failures.
func withRetry(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || !isTransient(err) {
		return err
	}
	select {
	case <-time.After(transientRetryDelay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return fn()
}
