package sqlcore

// ExecResult is the uniform post-mutation report returned by Execute and
// ExecPrepared.
//
// LastInsertID is populated for MySQL (from the driver's LastInsertId,
// narrowed to signed) and SQLite (from last_insert_rowid); it is left nil
// for PostgreSQL and MSSQL, neither of which exposes a single such value
// through database/sql.
type ExecResult struct {
	RowsAffected uint64
	LastInsertID *int64
}
