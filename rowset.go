package sqlcore

import (
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"time"
	"unicode/utf8"
)

// decodeRows converts a *sql.Rows into a JSON array — one object per row,
// column name to projected value — and then decodes that array into dest
// using standard encoding/json semantics. dest follows json.Unmarshal's
// convention: a pointer to whatever shape the caller wants (typically a
// pointer to a slice of structs).
//
// The exact SQL-type-to-JSON projection is left to projectColumn below,
// which applies a reasonable default: integers/floats/bool/string/NULL
// pass through, textual []byte becomes string, non-UTF8 []byte becomes
// base64, and time.Time becomes RFC3339Nano — this is the mapping sqlite3
// and go-mssqldb already coerce most scanned values into.
func decodeRows(rows *sql.Rows, dest any, tag DriverTag, sqlText string) (int, error) {
	cols, err := rows.Columns()
	if err != nil {
		return 0, &QueryError{Driver: tag, SQL: sqlText, Stage: "execute", Cause: err}
	}

	results := make([]map[string]any, 0)
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return 0, &QueryError{Driver: tag, SQL: sqlText, Stage: "execute", Cause: err}
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = projectColumn(raw[i])
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return 0, &QueryError{Driver: tag, SQL: sqlText, Stage: "execute", Cause: err}
	}

	buf, err := json.Marshal(results)
	if err != nil {
		return 0, &QueryError{Driver: tag, SQL: sqlText, Stage: "decode", Cause: err}
	}
	if err := json.Unmarshal(buf, dest); err != nil {
		return 0, &QueryError{Driver: tag, SQL: sqlText, Stage: "decode", Cause: err}
	}

	return len(results), nil
}

func projectColumn(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		if utf8.Valid(x) {
			return string(x)
		}
		return base64.StdEncoding.EncodeToString(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return x
	}
}
