package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

var connErrorPatterns = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"i/o timeout",
	"dial tcp",
	"EOF",
	"connection timed out",
	"server closed the connection unexpectedly",
	"could not connect",
	"failed to connect",
}

// isConnectionError reports whether err looks like a transient transport
// failure rather than a SQL or constraint error.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, p := range connErrorPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// StoreError converts timeouts and connection failures into a
// StoreUnavailable application error. Other errors are returned unchanged.
func StoreError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) || isConnectionError(err) {
		return apperrors.StoreUnavailable(err)
	}
	return err
}

// InTx runs fn inside a transaction. Errors from fn roll the transaction back
// and are returned through StoreError. A failed commit is reported as
// OutcomeUnknown since the server may already have applied it.
func InTx(ctx context.Context, db TxBeginner, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return StoreError(fmt.Errorf("begin transaction: %w", err))
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return StoreError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.OutcomeUnknown(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}
