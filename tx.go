package sqlcore

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
)

// txState is Tx's internal state machine: Active -> Committed
// or Active -> RolledBack, both terminal.
type txState int32

const (
	txActive txState = iota
	txCommitted
	txRolledBack
)

// Tx is a live transaction handle. It is owned by at most one caller at a
// time, though that ownership may be transferred across goroutines via
// TxManager's registry.
//
// mu is non-nil only for backends whose connection handle is not safe for
// concurrent mutation (SQLite today). Every operation below acquires mu
// for the duration of its single driver call and releases it before
// returning, letting a concurrent sweeper attempt rollback without
// deadlocking against in-flight work. Backends that don't need it leave mu
// nil and pay no locking cost.
type Tx struct {
	tag      DriverTag
	tx       *sql.Tx
	conn     *sql.Conn
	ownsConn bool
	state    atomic.Int32
	mu       *sync.Mutex
	logger   Logger
}

func newTx(tag DriverTag, sqlTx *sql.Tx, conn *sql.Conn, ownsConn bool, logger Logger) *Tx {
	t := &Tx{tag: tag, tx: sqlTx, conn: conn, ownsConn: ownsConn, logger: logger}
	t.state.Store(int32(txActive))
	if isSerialized(tag) {
		t.mu = &sync.Mutex{}
	}
	return t
}

// Tag returns the transaction's driver tag.
func (t *Tx) Tag() DriverTag { return t.tag }

func (t *Tx) active() bool {
	return txState(t.state.Load()) == txActive
}

func (t *Tx) lock() {
	if t.mu != nil {
		t.mu.Lock()
	}
}

func (t *Tx) unlock() {
	if t.mu != nil {
		t.mu.Unlock()
	}
}

// Fetch runs sqlText within the transaction and decodes the rows into
// dest, identically to PooledConn.Fetch but atomic with the surrounding
// commit/rollback.
func (t *Tx) Fetch(ctx context.Context, sqlText string, dest any) (int, error) {
	if !t.active() {
		return 0, ErrTransactionFinalized
	}
	t.lock()
	rows, err := t.tx.QueryContext(ctx, sqlText)
	if err != nil {
		t.unlock()
		return 0, &QueryError{Driver: t.tag, SQL: sqlText, Stage: "execute", Cause: err}
	}
	n, err := decodeRows(rows, dest, t.tag, sqlText)
	rows.Close()
	t.unlock()
	return n, err
}

// Execute runs a mutation within the transaction.
func (t *Tx) Execute(ctx context.Context, sqlText string) (ExecResult, error) {
	if !t.active() {
		return ExecResult{}, ErrTransactionFinalized
	}
	t.lock()
	res, err := t.tx.ExecContext(ctx, sqlText)
	t.unlock()
	if err != nil {
		return ExecResult{}, &QueryError{Driver: t.tag, SQL: sqlText, Stage: "execute", Cause: err}
	}
	return buildExecResult(res, t.tag), nil
}

// FetchPrepared is Fetch over a PreparedQuery.
func (t *Tx) FetchPrepared(ctx context.Context, q *PreparedQuery, dest any) (int, error) {
	if !t.active() {
		return 0, ErrTransactionFinalized
	}
	if q.tag != t.tag {
		return 0, ErrDriverMismatch
	}
	t.lock()
	rows, err := t.tx.QueryContext(ctx, q.sqlText, q.args...)
	if err != nil {
		t.unlock()
		return 0, &QueryError{Driver: t.tag, SQL: q.sqlText, Stage: "execute", Cause: err}
	}
	n, err := decodeRows(rows, dest, t.tag, q.sqlText)
	rows.Close()
	t.unlock()
	return n, err
}

// ExecPrepared is Execute over a PreparedQuery.
func (t *Tx) ExecPrepared(ctx context.Context, q *PreparedQuery) (ExecResult, error) {
	if !t.active() {
		return ExecResult{}, ErrTransactionFinalized
	}
	if q.tag != t.tag {
		return ExecResult{}, ErrDriverMismatch
	}
	t.lock()
	res, err := t.tx.ExecContext(ctx, q.sqlText, q.args...)
	t.unlock()
	if err != nil {
		return ExecResult{}, &QueryError{Driver: t.tag, SQL: q.sqlText, Stage: "execute", Cause: err}
	}
	return buildExecResult(res, t.tag), nil
}

// Commit finalizes the transaction. A second commit or rollback fails
// with ErrTransactionFinalized, since the first terminal call moves the
// state out of Active, whether or not the driver call succeeds.
func (t *Tx) Commit(ctx context.Context) error {
	t.lock()
	defer t.unlock()
	if !t.state.CompareAndSwap(int32(txActive), int32(txCommitted)) {
		return ErrTransactionFinalized
	}
	err := t.tx.Commit()
	if t.ownsConn {
		_ = t.conn.Close()
	}
	if err != nil {
		return &QueryError{Driver: t.tag, SQL: "COMMIT", Stage: "execute", Cause: err}
	}
	return nil
}

// Rollback finalizes the transaction by rolling it back.
func (t *Tx) Rollback(ctx context.Context) error {
	t.lock()
	defer t.unlock()
	if !t.state.CompareAndSwap(int32(txActive), int32(txRolledBack)) {
		return ErrTransactionFinalized
	}
	err := t.tx.Rollback()
	if t.ownsConn {
		_ = t.conn.Close()
	}
	if err != nil {
		return &QueryError{Driver: t.tag, SQL: "ROLLBACK", Stage: "execute", Cause: err}
	}
	return nil
}
