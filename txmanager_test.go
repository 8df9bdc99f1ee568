package sqlcore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockManagerPool(t *testing.T) (*Pool, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return &Pool{tag: DriverPostgres, db: db, opts: DefaultPoolOptions(), logger: defaultLogger()}, mock
}

func TestTxManagerBeginCommit(t *testing.T) {
	pool, mock := newMockManagerPool(t)
	mock.ExpectBegin()
	mock.ExpectExec("update").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mgr := NewTxManager(time.Hour, time.Hour, nil)
	defer mgr.Close()

	ctx := context.Background()
	if err := mgr.Begin(ctx, "t1", pool); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	err := mgr.GetMut("t1", func(tx *Tx) error {
		_, err := tx.Execute(ctx, "update users set x=1")
		return err
	})
	if err != nil {
		t.Fatalf("GetMut: %v", err)
	}

	if err := mgr.Commit(ctx, "t1"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if err := mgr.Commit(ctx, "t1"); !errors.Is(err, ErrTxNotFound) {
		t.Errorf("second Commit = %v; want ErrTxNotFound", err)
	}
}

func TestTxManagerRollback(t *testing.T) {
	pool, mock := newMockManagerPool(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	mgr := NewTxManager(time.Hour, time.Hour, nil)
	defer mgr.Close()

	ctx := context.Background()
	if err := mgr.Begin(ctx, "t1", pool); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := mgr.Rollback(ctx, "t1"); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
}

func TestTxManagerBeginRejectsEmptyID(t *testing.T) {
	pool, _ := newMockManagerPool(t)
	mgr := NewTxManager(time.Hour, time.Hour, nil)
	defer mgr.Close()

	if err := mgr.Begin(context.Background(), "", pool); err != ErrInvalidTxID {
		t.Errorf("err = %v; want ErrInvalidTxID", err)
	}
}

func TestTxManagerGetMutUnknownID(t *testing.T) {
	mgr := NewTxManager(time.Hour, time.Hour, nil)
	defer mgr.Close()

	err := mgr.GetMut("missing", func(tx *Tx) error { return nil })
	if !errors.Is(err, ErrTxNotFound) {
		t.Errorf("err = %v; want ErrTxNotFound", err)
	}
}

func TestTxManagerDuplicateBeginRollsBackPrevious(t *testing.T) {
	pool, mock := newMockManagerPool(t)
	// The overwritten transaction's rollback runs in its own goroutine,
	// racing the surviving transaction's commit; don't assume a fixed
	// interleaving of the two against the shared mock connection.
	mock.MatchExpectationsInOrder(false)
	mock.ExpectBegin()
	mock.ExpectBegin()
	mock.ExpectRollback() // the overwritten transaction, rolled back in the background
	mock.ExpectCommit()   // the surviving one

	mgr := NewTxManager(time.Hour, time.Hour, nil)
	defer mgr.Close()

	ctx := context.Background()
	if err := mgr.Begin(ctx, "dup", pool); err != nil {
		t.Fatalf("first Begin: %v", err)
	}
	if err := mgr.Begin(ctx, "dup", pool); err != nil {
		t.Fatalf("second Begin: %v", err)
	}

	if err := mgr.Commit(ctx, "dup"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	// Give the background rollback of the overwritten Tx time to run.
	deadline := time.After(time.Second)
	for {
		if err := mock.ExpectationsWereMet(); err == nil {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("unmet expectations: %v", mock.ExpectationsWereMet())
		case <-time.After(time.Millisecond):
		}
	}
}

func TestTxManagerSweeperRollsBackStaleTx(t *testing.T) {
	pool, mock := newMockManagerPool(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	mgr := NewTxManager(10*time.Millisecond, 5*time.Millisecond, nil)
	defer mgr.Close()

	ctx := context.Background()
	if err := mgr.Begin(ctx, "stale", pool); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		// GetMut only looks the entry up, so once it reports ErrTxNotFound
		// the sweeper (not this test) removed it; the mock's expected
		// ROLLBACK shows the sweeper also rolled it back.
		err := mgr.GetMut("stale", func(tx *Tx) error { return nil })
		if errors.Is(err, ErrTxNotFound) && mock.ExpectationsWereMet() == nil {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("sweeper never rolled back the stale transaction: %v", mock.ExpectationsWereMet())
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := mgr.Commit(ctx, "stale"); !errors.Is(err, ErrTxNotFound) {
		t.Errorf("Commit after sweep = %v; want ErrTxNotFound", err)
	}
}

func TestTxManagerCloseRollsBackOutstandingTx(t *testing.T) {
	pool, mock := newMockManagerPool(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	mgr := NewTxManager(time.Hour, time.Hour, nil)
	if err := mgr.Begin(context.Background(), "t1", pool); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	mgr.Close()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations after Close: %v", err)
	}
}

func TestTxManagerCloseIsIdempotent(t *testing.T) {
	mgr := NewTxManager(time.Hour, time.Hour, nil)
	mgr.Close()
	mgr.Close() // must return immediately, not block forever
}
