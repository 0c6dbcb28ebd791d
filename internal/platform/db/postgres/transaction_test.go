package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestTransactionManager_ReadWriteCommit(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	tm := NewTransactionManager(mock)

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite})
	mock.ExpectCommit()

	err = tm.WithinReadWrite(context.Background(), func(ctx context.Context) error {
		if _, ok := stateFromContext(ctx); !ok {
			t.Fatalf("transaction not injected into context")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("WithinReadWrite returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransactionManager_ReadOnlyRollbackOnError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	tm := NewTransactionManager(mock)

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadOnly})
	mock.ExpectRollback()

	expectedErr := errors.New("usecase error")
	err = tm.WithinReadOnly(context.Background(), func(ctx context.Context) error {
		if _, ok := stateFromContext(ctx); !ok {
			t.Fatalf("transaction not injected into context")
		}
		return expectedErr
	})

	if !errors.Is(err, expectedErr) {
		t.Fatalf("expected %v, got %v", expectedErr, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransactionManager_NestedReuse(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	tm := NewTransactionManager(mock)

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite})
	mock.ExpectCommit()

	err = tm.WithinReadWrite(context.Background(), func(ctx context.Context) error {
		return tm.WithinReadOnly(ctx, func(inner context.Context) error {
			if _, ok := stateFromContext(inner); !ok {
				t.Fatalf("nested transaction lost context")
			}
			return nil
		})
	})

	if err != nil {
		t.Fatalf("nested transaction returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransactionManager_NestedFailureRollsBackOuter(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	tm := NewTransactionManager(mock)

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite})
	mock.ExpectExec("UPDATE workers").WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectRollback()

	errDelete := errors.New("delete employer failed")
	err = tm.WithinReadWrite(context.Background(), func(ctx context.Context) error {
		if err := tm.WithinReadWrite(ctx, func(inner context.Context) error {
			_, err := QueryerFromContext(inner, mock).Exec(inner, "UPDATE workers SET employer_id = NULL, job_id = NULL")
			return err
		}); err != nil {
			return err
		}
		return errDelete
	})

	if !errors.Is(err, errDelete) {
		t.Fatalf("expected %v, got %v", errDelete, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransactionManager_AfterCommit(t *testing.T) {
	t.Parallel()

	t.Run("runs once the outermost transaction commits", func(t *testing.T) {
		t.Parallel()

		mock, err := pgxmock.NewPool()
		if err != nil {
			t.Fatalf("failed to create mock pool: %v", err)
		}
		defer mock.Close()

		tm := NewTransactionManager(mock)

		mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite})
		mock.ExpectCommit()

		var calls []string
		err = tm.WithinReadWrite(context.Background(), func(ctx context.Context) error {
			tm.AfterCommit(ctx, func() { calls = append(calls, "outer") })
			err := tm.WithinReadWrite(ctx, func(inner context.Context) error {
				tm.AfterCommit(inner, func() { calls = append(calls, "inner") })
				return nil
			})
			if len(calls) != 0 {
				t.Fatalf("hooks must wait for the outer commit, got %v", calls)
			}
			return err
		})
		if err != nil {
			t.Fatalf("WithinReadWrite returned error: %v", err)
		}
		if len(calls) != 2 || calls[0] != "outer" || calls[1] != "inner" {
			t.Fatalf("expected hooks in registration order, got %v", calls)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})

	t.Run("skipped on rollback", func(t *testing.T) {
		t.Parallel()

		mock, err := pgxmock.NewPool()
		if err != nil {
			t.Fatalf("failed to create mock pool: %v", err)
		}
		defer mock.Close()

		tm := NewTransactionManager(mock)

		mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite})
		mock.ExpectRollback()

		called := false
		expectedErr := errors.New("usecase error")
		err = tm.WithinReadWrite(context.Background(), func(ctx context.Context) error {
			return tm.WithinReadWrite(ctx, func(inner context.Context) error {
				tm.AfterCommit(inner, func() { called = true })
				return expectedErr
			})
		})
		if !errors.Is(err, expectedErr) {
			t.Fatalf("expected %v, got %v", expectedErr, err)
		}
		if called {
			t.Fatal("hook must not run after rollback")
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})

	t.Run("skipped when commit fails", func(t *testing.T) {
		t.Parallel()

		mock, err := pgxmock.NewPool()
		if err != nil {
			t.Fatalf("failed to create mock pool: %v", err)
		}
		defer mock.Close()

		tm := NewTransactionManager(mock)

		mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite})
		mock.ExpectCommit().WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		called := false
		err = tm.WithinReadWrite(context.Background(), func(ctx context.Context) error {
			tm.AfterCommit(ctx, func() { called = true })
			return nil
		})
		if err == nil {
			t.Fatal("expected commit error")
		}
		if called {
			t.Fatal("hook must not run when commit fails")
		}
	})

	t.Run("runs immediately outside a transaction", func(t *testing.T) {
		t.Parallel()

		mock, err := pgxmock.NewPool()
		if err != nil {
			t.Fatalf("failed to create mock pool: %v", err)
		}
		defer mock.Close()

		called := false
		NewTransactionManager(mock).AfterCommit(context.Background(), func() { called = true })
		if !called {
			t.Fatal("hook must run immediately without a transaction")
		}
	})
}
