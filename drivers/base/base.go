// Package base provides the shared descriptor shape sqlcore's four
// backend driver packages (mysql, postgres, sqlite, mssql) each implement,
// plus the feature-gate registry that decides which backends a given
// build actually enables.
//
// Each driver plugs in *how* to parse its connection URL and what locking
// guarantees it needs around one shared pool, so pool.go never hand-rolls
// a four-way switch.
package base

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Descriptor packages one backend's identity: the database/sql driver
// name it registers, how to turn a connection URL into that driver's
// native DSN, whether it can report a single last-insert-id, and whether
// its Tx needs the core's internal serialization primitive (true for
// SQLite only).
type Descriptor struct {
	SQLDriverName        string
	ParseURL             func(rawURL string) (string, error)
	SupportsLastInsertID bool
	Serialized           bool
}

// Registry gates which backends a build makes available. The zero value
// enables every backend; callers that want to refuse some backends
// construct one with Disable. Disabling a backend is a runtime check only:
// its driver package is still linked into the binary.
//
// Registry.Enabled keys strictly by the backend's own name, which rules
// out a class of copy-paste bug where one backend's constructor ends up
// testing another backend's feature flag.
type Registry struct {
	disabled map[string]bool
}

// Disable removes a backend from the registry. Subsequent Enabled(name)
// calls return false for it.
func (r *Registry) Disable(name string) {
	if r.disabled == nil {
		r.disabled = make(map[string]bool)
	}
	r.disabled[name] = true
}

// Enabled reports whether the named backend is available. A nil *Registry
// enables everything.
func (r *Registry) Enabled(name string) bool {
	if r == nil {
		return true
	}
	return !r.disabled[name]
}

// CheckEnabled returns ErrFeatureDisabled-shaped error text if the named
// backend has been disabled. Callers wrap this with their own sentinel;
// base stays free of a dependency on the root package to avoid an import
// cycle (root imports base, not the reverse).
func (r *Registry) CheckEnabled(name string) error {
	if r.Enabled(name) {
		return nil
	}
	return fmt.Errorf("backend %q disabled", name)
}

// GenerateTxID returns a cryptographically random 32-character hex string,
// suitable as a default tx_id when a caller doesn't supply one of its own
// for TxManager.Begin.
func GenerateTxID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
