package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/godown-app/godown/internal/shared"
)

// WithTx executes a function within a transaction using the RepeatableRead
// isolation level. Serialization failures surface as ErrConcurrentModification
// so callers can retry a bounded number of times.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return MapError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return MapError(fmt.Errorf("platform/db: commit tx: %w", err))
	}

	return nil
}

// MapError translates PostgreSQL error codes into domain sentinels.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", shared.ErrAlreadyExists, pgErr.ConstraintName)
		case "40001": // serialization_failure
			return fmt.Errorf("%w: %s", shared.ErrConcurrentModification, pgErr.Message)
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	return err
}
