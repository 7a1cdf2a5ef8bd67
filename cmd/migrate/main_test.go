package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion int
		wantName    string
		wantOK      bool
	}{
		{"0001_create_users.sql", 1, "create_users", true},
		{"0002_create_transactions.sql", 2, "create_transactions", true},
		{"0010_add_indexes.sql", 10, "add_indexes", true},
		{"001_too_short.sql", 0, "", false},
		{"0001_missing_extension", 0, "", false},
		{"create_users.sql", 0, "", false},
		{"README.md", 0, "", false},
	}

	for _, tt := range tests {
		version, name, ok := parseMigrationFilename(tt.filename)
		if ok != tt.wantOK {
			t.Errorf("parseMigrationFilename(%q) ok = %v, want %v", tt.filename, ok, tt.wantOK)
			continue
		}
		if version != tt.wantVersion || name != tt.wantName {
			t.Errorf("parseMigrationFilename(%q) = (%d, %q), want (%d, %q)",
				tt.filename, version, name, tt.wantVersion, tt.wantName)
		}
	}
}

func TestReadMigrationsOrdersByVersion(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"0003_third.sql":  "SELECT 3;",
		"0001_first.sql":  "SELECT 1;",
		"0002_second.sql": "SELECT 2;",
		"notes.txt":       "ignored",
	}
	for name, sql := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(sql), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	migrations, err := readMigrations(dir)
	if err != nil {
		t.Fatalf("readMigrations() error = %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("got %d migrations, want 3", len(migrations))
	}
	for i, want := range []int{1, 2, 3} {
		if migrations[i].Version != want {
			t.Errorf("migrations[%d].Version = %d, want %d", i, migrations[i].Version, want)
		}
	}
	if migrations[0].SQL != "SELECT 1;" {
		t.Errorf("migrations[0].SQL = %q", migrations[0].SQL)
	}
}

func TestReadMigrationsRejectsDuplicateVersions(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0001_first.sql", "0001_also_first.sql"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := readMigrations(dir); err == nil {
		t.Fatal("expected error for duplicate versions, got nil")
	}
}

func TestChecksumIsStable(t *testing.T) {
	content := []byte("CREATE TABLE users (id TEXT PRIMARY KEY);")
	if checksum(content) != checksum(content) {
		t.Error("checksum is not deterministic")
	}
	if checksum(content) == checksum([]byte("CREATE TABLE other (id TEXT);")) {
		t.Error("different content produced the same checksum")
	}
	if len(checksum(content)) != 64 {
		t.Errorf("checksum length = %d, want 64 hex chars", len(checksum(content)))
	}
}
