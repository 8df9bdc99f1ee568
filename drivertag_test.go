package sqlcore

import "testing"

func TestDriverTagString(t *testing.T) {
	tests := []struct {
		name string
		tag  DriverTag
		want string
	}{
		{"none", DriverNone, "none"},
		{"mysql", DriverMySQL, "mysql"},
		{"postgres", DriverPostgres, "postgres"},
		{"sqlite", DriverSQLite, "sqlite"},
		{"mssql", DriverMSSQL, "mssql"},
		{"unknown", DriverTag(99), "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tag.String(); got != tt.want {
				t.Errorf("DriverTag(%d).String() = %q; want %q", tt.tag, got, tt.want)
			}
		})
	}
}
