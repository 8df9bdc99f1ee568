package sqlcore

import (
	"fmt"
	"strings"

	"github.com/honeynil/sqlcore/drivers/base"
	"github.com/honeynil/sqlcore/drivers/mssql"
	"github.com/honeynil/sqlcore/drivers/mysql"
	"github.com/honeynil/sqlcore/drivers/postgres"
	"github.com/honeynil/sqlcore/drivers/sqlite"
)

// backendSpec pairs a DriverTag with the descriptor its package exports.
type backendSpec struct {
	tag     DriverTag
	desc    base.Descriptor
	schemes []string
}

// specs is the single place new backends are registered: the URL's scheme
// prefix selects the driver. Order doesn't matter; resolveScheme compares
// the URL's scheme for equality against every scheme of every spec.
var specs = []backendSpec{
	{tag: DriverMySQL, desc: mysql.Descriptor(), schemes: []string{"mysql"}},
	{tag: DriverPostgres, desc: postgres.Descriptor(), schemes: []string{"postgres", "postgresql"}},
	{tag: DriverSQLite, desc: sqlite.Descriptor(), schemes: []string{"sqlite"}},
	{tag: DriverMSSQL, desc: mssql.Descriptor(), schemes: []string{"mssql", "sqlserver"}},
}

// resolveScheme picks the backendSpec whose scheme prefix matches rawURL,
// or ErrUnsupportedDriver if none does.
func resolveScheme(rawURL string) (backendSpec, error) {
	idx := strings.Index(rawURL, "://")
	if idx < 0 {
		return backendSpec{}, fmt.Errorf("%w: %q has no scheme", ErrUnsupportedDriver, rawURL)
	}
	scheme := rawURL[:idx]

	for _, spec := range specs {
		for _, s := range spec.schemes {
			if scheme == s {
				return spec, nil
			}
		}
	}
	return backendSpec{}, fmt.Errorf("%w: %q", ErrUnsupportedDriver, scheme)
}

// checkFeature verifies the registry (nil-safe: nil enables everything)
// allows the given backend, returning ErrFeatureDisabled otherwise. Gating
// is keyed by the backend's own DriverTag — see base.Registry's doc
// comment for why that keying matters.
func checkFeature(reg *base.Registry, spec backendSpec) error {
	if err := reg.CheckEnabled(spec.tag.String()); err != nil {
		return fmt.Errorf("%w: %v", ErrFeatureDisabled, err)
	}
	return nil
}

// isSerialized reports whether tag's registered descriptor requires the
// mutual-exclusion primitive Tx uses to guard a connection handle that
// isn't safe for concurrent access.
func isSerialized(tag DriverTag) bool {
	for _, spec := range specs {
		if spec.tag == tag {
			return spec.desc.Serialized
		}
	}
	return false
}
