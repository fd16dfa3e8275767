package repository

import (
	"context"
	"fmt"

	"cinema-ops/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// serializableAttempts bounds retries on serialization conflicts.
const serializableAttempts = 3

// AfterCommit is a hook that runs only after a successful commit.
type AfterCommit func(ctx context.Context)

// UnitOfWork gives a multi-entity mutation all-or-nothing semantics. The
// closure receives a transaction-scoped repository bundle; any error (or a
// cancelled context) rolls the whole transaction back before the error
// propagates. After-commit hooks never run on a rolled-back transaction.
// Nesting is not supported.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx *Repository, after func(AfterCommit)) error) error
	// DoSerializable runs fn at serializable isolation and retries the
	// whole transaction a bounded number of times on SQLSTATE 40001/40P01.
	DoSerializable(ctx context.Context, fn func(ctx context.Context, tx *Repository, after func(AfterCommit)) error) error
}

type pgxUnitOfWork struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewUnitOfWork(db database.PgxIface, log *zap.Logger) UnitOfWork {
	return &pgxUnitOfWork{
		db:  db,
		log: log.With(zap.String("component", "uow")),
	}
}

func (u *pgxUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, tx *Repository, after func(AfterCommit)) error) error {
	return u.run(ctx, pgx.TxOptions{}, fn)
}

func (u *pgxUnitOfWork) DoSerializable(ctx context.Context, fn func(ctx context.Context, tx *Repository, after func(AfterCommit)) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.Serializable, AccessMode: pgx.ReadWrite}

	var err error
	for attempt := 1; attempt <= serializableAttempts; attempt++ {
		err = u.run(ctx, opts, fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
		u.log.Warn("Serialization conflict, retrying transaction",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return fmt.Errorf("serializable transaction gave up after %d attempts: %w", serializableAttempts, err)
}

func (u *pgxUnitOfWork) run(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context, tx *Repository, after func(AfterCommit)) error) error {
	tx, err := u.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// Rollback is a no-op once the transaction committed.
	defer tx.Rollback(ctx)

	var hooks []AfterCommit

	repos := NewRepository(tx, u.log)
	if err := fn(ctx, repos, func(h AfterCommit) {
		hooks = append(hooks, h)
	}); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		// Cancelled mid-operation: the deferred rollback discards all
		// writes before the cancellation propagates.
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", translateDBErr(err))
	}

	for _, h := range hooks {
		h(ctx)
	}

	return nil
}
