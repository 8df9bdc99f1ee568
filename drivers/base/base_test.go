package base

import "testing"

func TestRegistryNilEnablesEverything(t *testing.T) {
	var r *Registry
	if !r.Enabled("mysql") {
		t.Error("nil *Registry should enable every backend")
	}
	if err := r.CheckEnabled("mysql"); err != nil {
		t.Errorf("CheckEnabled on nil registry = %v; want nil", err)
	}
}

func TestRegistryDisableIsScopedToOneName(t *testing.T) {
	r := &Registry{}
	r.Disable("sqlite")

	if r.Enabled("sqlite") {
		t.Error("sqlite should be disabled")
	}
	if !r.Enabled("mssql") {
		t.Error("disabling sqlite must not disable mssql")
	}
	if err := r.CheckEnabled("sqlite"); err == nil {
		t.Error("CheckEnabled(sqlite) should error once disabled")
	}
}

func TestGenerateTxIDIsUniqueAndHex(t *testing.T) {
	a, err := GenerateTxID()
	if err != nil {
		t.Fatalf("GenerateTxID: %v", err)
	}
	b, err := GenerateTxID()
	if err != nil {
		t.Fatalf("GenerateTxID: %v", err)
	}

	if a == b {
		t.Error("two calls to GenerateTxID produced the same id")
	}
	if len(a) != 32 {
		t.Errorf("len(GenerateTxID()) = %d; want 32", len(a))
	}
}
