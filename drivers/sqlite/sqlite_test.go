package sqlite

import "testing"

func TestParseURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"file path", "sqlite://./data/app.db", "./data/app.db"},
		{"bare scheme defaults to memory", "sqlite://", ":memory:"},
		{"pragma passthrough", "sqlite://file.db?_journal_mode=WAL", "file.db?_journal_mode=WAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseURL(tt.url)
			if err != nil {
				t.Fatalf("ParseURL(%q): %v", tt.url, err)
			}
			if got != tt.want {
				t.Errorf("ParseURL(%q) = %q; want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestDescriptor(t *testing.T) {
	d := Descriptor()
	if d.SQLDriverName != "sqlite3" {
		t.Errorf("SQLDriverName = %q; want sqlite3", d.SQLDriverName)
	}
	if !d.SupportsLastInsertID {
		t.Error("SupportsLastInsertID should be true for sqlite")
	}
	if !d.Serialized {
		t.Error("Serialized should be true for sqlite")
	}
}
