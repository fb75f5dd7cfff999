package db

import (
	"path/filepath"
	"testing"
)

func TestOpen_CreatesSchema(t *testing.T) {
	conn, err := Open(filepath.Join(t.TempDir(), "studio.db"), nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer conn.Close()

	for _, table := range []string{"_migrations", "jobs"} {
		var name string
		err := conn.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "studio.db")

	first, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("first Open() error = %v", err)
	}
	if _, err := first.Exec(
		"INSERT INTO jobs (id, type, status, created_at, updated_at) VALUES ('j1', 'build', 'completed', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')",
	); err != nil {
		t.Fatalf("insert job: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	second, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	defer second.Close()

	var count int
	if err := second.QueryRow("SELECT COUNT(*) FROM jobs").Scan(&count); err != nil {
		t.Fatalf("count jobs: %v", err)
	}
	if count != 1 {
		t.Errorf("jobs count after reopen = %d, want 1", count)
	}

	var applied int
	if err := second.QueryRow("SELECT COUNT(*) FROM _migrations").Scan(&applied); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if applied != 1 {
		t.Errorf("recorded migrations = %d, want 1", applied)
	}
}
