package db

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const migrationsTestPrefix = "db:migrations_test"

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("%s - failed to write %s: %v", migrationsTestPrefix, name, err)
		}
	}
}

func TestLoadMigrations(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"0002_meta.sql":    "SECOND",
		"0001_objects.sql": "FIRST",
		"0010_outbox.sql":  "THIRD",
		"README.md":        "# not sql",
	})
	if err := os.Mkdir(filepath.Join(dir, "archive.sql"), 0o755); err != nil {
		t.Fatalf("%s - mkdir: %v", migrationsTestPrefix, err)
	}

	got, err := LoadMigrations(dir)
	if err != nil {
		t.Fatalf("%s - unexpected error: %v", migrationsTestPrefix, err)
	}
	want := []Migration{
		{Name: "0001_objects.sql", SQL: "FIRST"},
		{Name: "0002_meta.sql", SQL: "SECOND"},
		{Name: "0010_outbox.sql", SQL: "THIRD"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("%s - LoadMigrations() = %+v, want %+v", migrationsTestPrefix, got, want)
	}
	if names := MigrationNames(got); !reflect.DeepEqual(names, []string{"0001_objects.sql", "0002_meta.sql", "0010_outbox.sql"}) {
		t.Errorf("%s - MigrationNames() = %v", migrationsTestPrefix, names)
	}
}

func TestLoadMigrations_Errors(t *testing.T) {
	if got, err := LoadMigrations(t.TempDir()); err != nil || len(got) != 0 {
		t.Errorf("%s - empty dir = %v, %v; want no migrations", migrationsTestPrefix, got, err)
	}

	if _, err := LoadMigrations(filepath.Join(t.TempDir(), "nonexistent")); err == nil {
		t.Error("db:migrations_test - expected error for non-existent directory")
	}

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"0001_ok.sql": "SELECT 1;", "0002_blank.sql": " \n\t"})
	_, err := LoadMigrations(dir)
	if err == nil || !strings.Contains(err.Error(), "0002_blank.sql") {
		t.Errorf("%s - blank migration error = %v, want one naming 0002_blank.sql", migrationsTestPrefix, err)
	}
}

func TestRepoMigrations_CreateSchemaTables(t *testing.T) {
	migrations, err := LoadMigrations(filepath.Join("..", "..", "migrations"))
	if err != nil {
		t.Fatalf("%s - load repo migrations: %v", migrationsTestPrefix, err)
	}
	for _, table := range SchemaTables {
		found := false
		for _, m := range migrations {
			if strings.Contains(m.SQL, "CREATE TABLE IF NOT EXISTS "+table+" ") {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("%s - no migration creates table %s", migrationsTestPrefix, table)
		}
	}
}

func TestStatus_Applied(t *testing.T) {
	if !(Status{Present: SchemaTables}).Applied() {
		t.Error("db:migrations_test - expected applied with no missing tables")
	}
	if (Status{Missing: []string{"objects"}}).Applied() {
		t.Error("db:migrations_test - expected not applied with a missing table")
	}
}
