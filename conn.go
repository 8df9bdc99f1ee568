package sqlcore

import (
	"context"
	"database/sql"
	"sync/atomic"
)

// PooledConn is a single live connection leased from a Pool.
// It is exclusively owned by the caller for its lifetime and returned to
// the pool when Close is called.
type PooledConn struct {
	tag    DriverTag
	conn   *sql.Conn
	logger Logger
	closed atomic.Bool
}

// alive reports the invariant every public operation checks first: the
// tag matches a non-empty payload.
func (c *PooledConn) alive() bool {
	return c != nil && c.tag != DriverNone && c.conn != nil && !c.closed.Load()
}

// Tag returns the connection's driver tag.
func (c *PooledConn) Tag() DriverTag { return c.tag }

// Fetch runs sqlText, collects all rows, and decodes them into dest (a
// pointer to a slice, following encoding/json.Unmarshal's convention). It
// returns the row count, which equals len(*dest) on success.
func (c *PooledConn) Fetch(ctx context.Context, sqlText string, dest any) (int, error) {
	if !c.alive() {
		return 0, ErrConnectionClosed
	}
	rows, err := c.conn.QueryContext(ctx, sqlText)
	if err != nil {
		return 0, &QueryError{Driver: c.tag, SQL: sqlText, Stage: "execute", Cause: err}
	}
	defer rows.Close()
	return decodeRows(rows, dest, c.tag, sqlText)
}

// Execute runs a mutation and returns its ExecResult.
func (c *PooledConn) Execute(ctx context.Context, sqlText string) (ExecResult, error) {
	if !c.alive() {
		return ExecResult{}, ErrConnectionClosed
	}
	res, err := c.conn.ExecContext(ctx, sqlText)
	if err != nil {
		return ExecResult{}, &QueryError{Driver: c.tag, SQL: sqlText, Stage: "execute", Cause: err}
	}
	return buildExecResult(res, c.tag), nil
}

// FetchPrepared is Fetch over a PreparedQuery. The query must
// carry the same driver tag as this connection, or DriverMismatch.
func (c *PooledConn) FetchPrepared(ctx context.Context, q *PreparedQuery, dest any) (int, error) {
	if !c.alive() {
		return 0, ErrConnectionClosed
	}
	if q.tag != c.tag {
		return 0, ErrDriverMismatch
	}
	rows, err := c.conn.QueryContext(ctx, q.sqlText, q.args...)
	if err != nil {
		return 0, &QueryError{Driver: c.tag, SQL: q.sqlText, Stage: "execute", Cause: err}
	}
	defer rows.Close()
	return decodeRows(rows, dest, c.tag, q.sqlText)
}

// ExecPrepared is Execute over a PreparedQuery.
func (c *PooledConn) ExecPrepared(ctx context.Context, q *PreparedQuery) (ExecResult, error) {
	if !c.alive() {
		return ExecResult{}, ErrConnectionClosed
	}
	if q.tag != c.tag {
		return ExecResult{}, ErrDriverMismatch
	}
	res, err := c.conn.ExecContext(ctx, q.sqlText, q.args...)
	if err != nil {
		return ExecResult{}, &QueryError{Driver: c.tag, SQL: q.sqlText, Stage: "execute", Cause: err}
	}
	return buildExecResult(res, c.tag), nil
}

// Begin begins a transaction on this connection. Unlike
// Pool.Begin, the connection is not released when the Tx finalizes —
// this PooledConn remains usable afterward.
func (c *PooledConn) Begin(ctx context.Context) (*Tx, error) {
	return c.beginWithOwnership(ctx, false)
}

func (c *PooledConn) beginWithOwnership(ctx context.Context, ownsConn bool) (*Tx, error) {
	if !c.alive() {
		return nil, ErrConnectionClosed
	}
	sqlTx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, &QueryError{Driver: c.tag, SQL: "BEGIN", Stage: "execute", Cause: err}
	}
	return newTx(c.tag, sqlTx, c.conn, ownsConn, c.logger), nil
}

// Ping is a driver-level liveness probe.
func (c *PooledConn) Ping(ctx context.Context) error {
	if !c.alive() {
		return ErrConnectionClosed
	}
	if err := c.conn.PingContext(ctx); err != nil {
		return ErrConnectionError
	}
	return nil
}

// Close releases the connection early. It is returned to its pool via
// database/sql's normal Conn.Close path.
func (c *PooledConn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.conn.Close()
}

// buildExecResult converts a sql.Result into ExecResult, populating
// LastInsertID only for backends that support it.
func buildExecResult(res sql.Result, tag DriverTag) ExecResult {
	rowsAffected, _ := res.RowsAffected()
	out := ExecResult{RowsAffected: uint64(rowsAffected)}

	if supportsLastInsertID(tag) {
		if id, err := res.LastInsertId(); err == nil {
			out.LastInsertID = &id
		}
	}
	return out
}

func supportsLastInsertID(tag DriverTag) bool {
	for _, spec := range specs {
		if spec.tag == tag {
			return spec.desc.SupportsLastInsertID
		}
	}
	return false
}
