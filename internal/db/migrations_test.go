package db_test

import (
	"path/filepath"
	"testing"

	"github.com/saadjs/tdee-cli/internal/db"
)

func TestApplyMigrationsIdempotent(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "tdee.db")
	sqldb, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer sqldb.Close()

	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("first apply migrations: %v", err)
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("second apply migrations: %v", err)
	}

	var migrationCount int
	if err := sqldb.QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&migrationCount); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if migrationCount != 4 {
		t.Fatalf("expected 4 migration versions, got %d", migrationCount)
	}

	for _, table := range []string{"logs", "day_entries", "preferences", "health_imports"} {
		var n int
		if err := sqldb.QueryRow(`SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n); err != nil {
			t.Fatalf("check %s table: %v", table, err)
		}
		if n != 1 {
			t.Fatalf("expected %s table to exist", table)
		}
	}

	var boundsColCount int
	if err := sqldb.QueryRow(`SELECT COUNT(1) FROM pragma_table_info('day_entries') WHERE name = 'bounds_json'`).Scan(&boundsColCount); err != nil {
		t.Fatalf("check bounds column: %v", err)
	}
	if boundsColCount != 1 {
		t.Fatalf("expected bounds_json column in day_entries table")
	}
}

func TestDayEntriesUniquePerLogDay(t *testing.T) {
	t.Parallel()

	sqldb, err := db.Open(filepath.Join(t.TempDir(), "tdee.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer sqldb.Close()
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	if _, err := sqldb.Exec(`INSERT INTO logs(title, last_edit) VALUES('cut', CURRENT_TIMESTAMP)`); err != nil {
		t.Fatalf("insert log: %v", err)
	}
	insert := `INSERT INTO day_entries(id, log_id, day, created_at, updated_at) VALUES(?, 1, '2026-03-01', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	if _, err := sqldb.Exec(insert, 1); err != nil {
		t.Fatalf("insert first day: %v", err)
	}
	if _, err := sqldb.Exec(insert, 2); err == nil {
		t.Fatalf("expected duplicate day insert to fail")
	}

	if _, err := sqldb.Exec(`DELETE FROM logs WHERE id = 1`); err != nil {
		t.Fatalf("delete log: %v", err)
	}
	var remaining int
	if err := sqldb.QueryRow(`SELECT COUNT(1) FROM day_entries`).Scan(&remaining); err != nil {
		t.Fatalf("count days: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected day entries to cascade with the log, got %d", remaining)
	}
}
