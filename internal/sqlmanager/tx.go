package sqlmanager

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/stockroomhq/stockroom/internal/domain/dberror"
)

// withTransaction runs fn inside one transaction: a begin failure aborts
// before any write, any error from fn triggers an unconditional rollback
// and is rethrown unchanged, and a commit failure is surfaced under its
// own code. A rollback failure is logged but never masks the original
// error.
func withTransaction(ctx context.Context, conn *pgx.Conn, logger *zap.Logger, fn func(tx pgx.Tx) error) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return dberror.New(dberror.CodeBeginTransactionFailed, err.Error(), "Failed to start transaction.")
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			logger.Error("failed to roll back failed transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return dberror.New(dberror.CodeCommitTransactionFailed, err.Error(), "Failed to commit.")
	}
	return nil
}

// isDuplicateKey reports whether err is a unique-constraint violation.
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
