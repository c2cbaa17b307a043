package storage

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeMigration(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestPendingMigrationsOrdersLexically(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "002_reports.sql")
	writeMigration(t, dir, "001_init.sql")
	writeMigration(t, dir, "010_indexes.sql")

	pending, err := pendingMigrations(dir, nil)
	if err != nil {
		t.Fatalf("pendingMigrations failed: %v", err)
	}

	want := []string{"001_init.sql", "002_reports.sql", "010_indexes.sql"}
	if !reflect.DeepEqual(pending, want) {
		t.Errorf("pending = %v, want %v", pending, want)
	}
}

func TestPendingMigrationsSkipsAppliedAndNonSQL(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "001_init.sql")
	writeMigration(t, dir, "002_reports.sql")
	writeMigration(t, dir, "README.md")
	if err := os.Mkdir(filepath.Join(dir, "archive.sql"), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	pending, err := pendingMigrations(dir, map[string]bool{"001_init.sql": true})
	if err != nil {
		t.Fatalf("pendingMigrations failed: %v", err)
	}

	want := []string{"002_reports.sql"}
	if !reflect.DeepEqual(pending, want) {
		t.Errorf("pending = %v, want %v", pending, want)
	}
}

func TestPendingMigrationsMissingDir(t *testing.T) {
	if _, err := pendingMigrations(filepath.Join(t.TempDir(), "nope"), nil); err == nil {
		t.Fatal("expected error for a missing directory")
	}
}
