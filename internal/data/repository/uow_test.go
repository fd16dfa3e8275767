package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// stubTx records transaction outcomes. Query methods are never reached
// because the closures under test touch no repository.
type stubTx struct {
	commitErr error
	commits   int
	rollbacks int
}

func (t *stubTx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("nested transactions not supported")
}

func (t *stubTx) Commit(ctx context.Context) error {
	t.commits++
	return t.commitErr
}

func (t *stubTx) Rollback(ctx context.Context) error {
	t.rollbacks++
	return nil
}

func (t *stubTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (t *stubTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *stubTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }

func (t *stubTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (t *stubTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (t *stubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (t *stubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *stubTx) Conn() *pgx.Conn                                               { return nil }

type stubDB struct {
	tx     *stubTx
	begins int
	opts   []pgx.TxOptions
}

func (d *stubDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (d *stubDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }

func (d *stubDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (d *stubDB) Begin(ctx context.Context) (pgx.Tx, error) {
	return d.BeginTx(ctx, pgx.TxOptions{})
}

func (d *stubDB) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	d.begins++
	d.opts = append(d.opts, opts)
	return d.tx, nil
}

func (d *stubDB) Ping(ctx context.Context) error { return nil }
func (d *stubDB) Close()                         {}

func TestUnitOfWorkCommitRunsAfterHooks(t *testing.T) {
	tx := &stubTx{}
	uow := NewUnitOfWork(&stubDB{tx: tx}, zap.NewNop())

	fired := 0
	err := uow.Do(context.Background(), func(ctx context.Context, repos *Repository, after func(AfterCommit)) error {
		after(func(ctx context.Context) { fired++ })
		return nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if tx.commits != 1 {
		t.Errorf("expected 1 commit, got %d", tx.commits)
	}
	if fired != 1 {
		t.Errorf("expected after-commit hook to fire once, fired %d times", fired)
	}
}

func TestUnitOfWorkRollsBackOnClosureError(t *testing.T) {
	tx := &stubTx{}
	uow := NewUnitOfWork(&stubDB{tx: tx}, zap.NewNop())

	boom := errors.New("boom")
	fired := 0
	err := uow.Do(context.Background(), func(ctx context.Context, repos *Repository, after func(AfterCommit)) error {
		after(func(ctx context.Context) { fired++ })
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the closure error back unchanged, got %v", err)
	}
	if tx.commits != 0 {
		t.Errorf("expected no commit, got %d", tx.commits)
	}
	if tx.rollbacks == 0 {
		t.Error("expected a rollback")
	}
	if fired != 0 {
		t.Errorf("after-commit hook ran on a rolled-back transaction %d times", fired)
	}
}

func TestUnitOfWorkAbortsOnCancelledContext(t *testing.T) {
	tx := &stubTx{}
	uow := NewUnitOfWork(&stubDB{tx: tx}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	fired := 0
	err := uow.Do(ctx, func(ctx context.Context, repos *Repository, after func(AfterCommit)) error {
		after(func(ctx context.Context) { fired++ })
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if tx.commits != 0 {
		t.Errorf("cancelled transaction committed %d times", tx.commits)
	}
	if fired != 0 {
		t.Errorf("after-commit hook ran on a cancelled transaction %d times", fired)
	}
}

func TestUnitOfWorkTranslatesCommitConflict(t *testing.T) {
	tx := &stubTx{commitErr: &pgconn.PgError{Code: "23505"}}
	uow := NewUnitOfWork(&stubDB{tx: tx}, zap.NewNop())

	err := uow.Do(context.Background(), func(ctx context.Context, repos *Repository, after func(AfterCommit)) error {
		return nil
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestDoSerializableRetriesThenSucceeds(t *testing.T) {
	db := &stubDB{tx: &stubTx{}}
	uow := NewUnitOfWork(db, zap.NewNop())

	attempts := 0
	err := uow.DoSerializable(context.Background(), func(ctx context.Context, repos *Repository, after func(AfterCommit)) error {
		attempts++
		if attempts == 1 {
			return &pgconn.PgError{Code: "40001"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("DoSerializable failed: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
	if db.opts[0].IsoLevel != pgx.Serializable {
		t.Errorf("expected serializable isolation, got %v", db.opts[0].IsoLevel)
	}
}

func TestDoSerializableGivesUpAfterBoundedRetries(t *testing.T) {
	uow := NewUnitOfWork(&stubDB{tx: &stubTx{}}, zap.NewNop())

	attempts := 0
	err := uow.DoSerializable(context.Background(), func(ctx context.Context, repos *Repository, after func(AfterCommit)) error {
		attempts++
		return &pgconn.PgError{Code: "40001"}
	})
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if attempts != serializableAttempts {
		t.Errorf("expected %d attempts, got %d", serializableAttempts, attempts)
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "40001" {
		t.Errorf("expected the serialization failure preserved in the chain, got %v", err)
	}
}

func TestDoSerializableDoesNotRetryBusinessErrors(t *testing.T) {
	uow := NewUnitOfWork(&stubDB{tx: &stubTx{}}, zap.NewNop())

	boom := errors.New("seat taken")
	attempts := 0
	err := uow.DoSerializable(context.Background(), func(ctx context.Context, repos *Repository, after func(AfterCommit)) error {
		attempts++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the business error back unchanged, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("business error was retried, %d attempts", attempts)
	}
}
