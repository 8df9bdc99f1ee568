package sqlcore

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/honeynil/sqlcore/drivers/base"
)

func newMockPool(t *testing.T) (*Pool, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	pool := &Pool{tag: DriverSQLite, db: db, opts: DefaultPoolOptions(), logger: defaultLogger()}
	return pool, mock
}

func TestNewPoolWithOptionsRejectsUnsupportedScheme(t *testing.T) {
	_, err := NewPoolWithOptions(context.Background(), "redis://host", DefaultPoolOptions())
	if !errors.Is(err, ErrUnsupportedDriver) {
		t.Errorf("err = %v; want ErrUnsupportedDriver", err)
	}
}

func TestNewPoolWithOptionsHonorsFeatureRegistry(t *testing.T) {
	reg := &base.Registry{}
	reg.Disable("sqlite")

	_, err := NewPoolWithOptions(context.Background(), "sqlite://:memory:", DefaultPoolOptions(), WithFeatureRegistry(reg))
	if !errors.Is(err, ErrFeatureDisabled) {
		t.Errorf("err = %v; want ErrFeatureDisabled", err)
	}
}

func TestPoolMakeQueryRequiresInitializedTag(t *testing.T) {
	var p Pool
	if _, err := p.MakeQuery("select 1"); err != ErrNotInitialized {
		t.Errorf("MakeQuery on zero-value Pool = %v; want ErrNotInitialized", err)
	}

	pool, _ := newMockPool(t)
	q, err := pool.MakeQuery("select 1")
	if err != nil {
		t.Fatalf("MakeQuery: %v", err)
	}
	if q.DriverTag() != DriverSQLite {
		t.Errorf("q.DriverTag() = %v; want DriverSQLite", q.DriverTag())
	}
}

func TestPoolAcquireAndClose(t *testing.T) {
	pool, mock := newMockPool(t)

	conn, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if conn.Tag() != DriverSQLite {
		t.Errorf("conn.Tag() = %v; want DriverSQLite", conn.Tag())
	}
	if err := conn.Close(); err != nil {
		t.Errorf("conn.Close: %v", err)
	}

	mock.ExpectClose()
	if err := pool.Close(); err != nil {
		t.Errorf("pool.Close: %v", err)
	}
	// Idempotent: a second Close must not error or double-close db.
	if err := pool.Close(); err != nil {
		t.Errorf("second pool.Close: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPoolTryAcquireNeverBlocks(t *testing.T) {
	pool, _ := newMockPool(t)

	conn, err := pool.TryAcquire(context.Background())
	if err != nil {
		t.Fatalf("TryAcquire: %v", err)
	}
	if conn == nil {
		t.Fatal("TryAcquire returned nil conn with nil error")
	}
	_ = conn.Close()
}

func TestPoolBeginOwnsConnection(t *testing.T) {
	pool, mock := newMockPool(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	tx, err := pool.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := tx.Commit(context.Background()); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
