package sqlcore

import (
	"errors"
	"testing"

	"github.com/honeynil/sqlcore/drivers/base"
)

func TestResolveScheme(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    DriverTag
		wantErr bool
	}{
		{"mysql", "mysql://user@host/db", DriverMySQL, false},
		{"postgres", "postgres://user@host/db", DriverPostgres, false},
		{"postgresql alias", "postgresql://user@host/db", DriverPostgres, false},
		{"sqlite", "sqlite://file.db", DriverSQLite, false},
		{"mssql", "mssql://user@host/db", DriverMSSQL, false},
		{"sqlserver alias", "sqlserver://user@host/db", DriverMSSQL, false},
		{"unknown scheme", "redis://host", DriverNone, true},
		{"no scheme", "not-a-url", DriverNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := resolveScheme(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("resolveScheme(%q) err = nil; want error", tt.url)
				}
				if !errors.Is(err, ErrUnsupportedDriver) {
					t.Errorf("err = %v; want wrapping ErrUnsupportedDriver", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveScheme(%q) unexpected error: %v", tt.url, err)
			}
			if spec.tag != tt.want {
				t.Errorf("resolveScheme(%q) tag = %v; want %v", tt.url, spec.tag, tt.want)
			}
		})
	}
}

func TestCheckFeatureNilRegistryEnablesEverything(t *testing.T) {
	spec, err := resolveScheme("sqlite://file.db")
	if err != nil {
		t.Fatalf("resolveScheme: %v", err)
	}
	if err := checkFeature(nil, spec); err != nil {
		t.Errorf("checkFeature(nil, ...) = %v; want nil", err)
	}
}

func TestCheckFeatureDisabledBackend(t *testing.T) {
	reg := &base.Registry{}
	reg.Disable("sqlite")

	spec, err := resolveScheme("sqlite://file.db")
	if err != nil {
		t.Fatalf("resolveScheme: %v", err)
	}
	if err := checkFeature(reg, spec); !errors.Is(err, ErrFeatureDisabled) {
		t.Errorf("checkFeature with sqlite disabled = %v; want ErrFeatureDisabled", err)
	}
}

func TestCheckFeatureDoesNotDisableOtherBackends(t *testing.T) {
	// Regression guard: disabling sqlite must never also disable mssql.
	reg := &base.Registry{}
	reg.Disable("sqlite")

	spec, err := resolveScheme("mssql://host/db")
	if err != nil {
		t.Fatalf("resolveScheme: %v", err)
	}
	if err := checkFeature(reg, spec); err != nil {
		t.Errorf("checkFeature(mssql) = %v; want nil (sqlite being disabled must not affect mssql)", err)
	}
}
