package service_test

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/saadjs/tdee-cli/internal/db"
	"github.com/saadjs/tdee-cli/internal/service"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tdee.db")
	sqldb, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return sqldb
}

func newTestLog(t *testing.T, sqldb *sql.DB, title string) int64 {
	t.Helper()
	id, err := service.CreateLog(sqldb, service.CreateLogInput{Title: title})
	if err != nil {
		t.Fatalf("create log: %v", err)
	}
	return id
}

func mustDay(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := service.ParseDay(value)
	if err != nil {
		t.Fatalf("parse day: %v", err)
	}
	return d
}

func floatPtr(v float64) *float64 {
	return &v
}

func intPtr(v int) *int {
	return &v
}
