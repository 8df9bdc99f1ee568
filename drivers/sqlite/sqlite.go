// Package sqlite provides the backend descriptor for sqlcore's SQLite
// support.
//
// SQLite's connection handles are not safe for concurrent mutation, so
// every Tx built against this backend is wrapped in a mutual-exclusion
// primitive by tx.go before it is handed back to the caller. Serialized
// reports that requirement to the rest of the core.
package sqlite

import (
	"strings"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" database/sql driver

	"github.com/honeynil/sqlcore/drivers/base"
)

// SQLDriverName is the name go-sqlite3 registers with database/sql.
const SQLDriverName = "sqlite3"

// SupportsLastInsertID reports whether ExecResult.LastInsertID should be
// populated for this backend: sourced from last_insert_rowid.
const SupportsLastInsertID = true

// Serialized reports whether transactions on this backend need the core's
// internal serialization primitive. True for SQLite only.
const Serialized = true

// ParseURL converts a "sqlite://" connection URL into the go-sqlite3 DSN:
// either a file path or ":memory:". The URL body is passed through as-is,
// including any query-string pragmas (e.g. _journal_mode=WAL), since
// go-sqlite3 accepts those directly on its DSN.
func ParseURL(rawURL string) (string, error) {
	dsn := strings.TrimPrefix(rawURL, "sqlite://")
	if dsn == "" {
		dsn = ":memory:"
	}
	return dsn, nil
}

// Descriptor returns this backend's base.Descriptor for registration with
// the root driver registry.
func Descriptor() base.Descriptor {
	return base.Descriptor{
		SQLDriverName:        SQLDriverName,
		ParseURL:             ParseURL,
		SupportsLastInsertID: SupportsLastInsertID,
		Serialized:           Serialized,
	}
}
