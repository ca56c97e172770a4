package database

import (
	"testing"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite"})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := db.Exec("SELECT 1").Error; err != nil {
		t.Fatalf("expected health query to succeed: %v", err)
	}
}

func TestOpenDefaultsToSQLite(t *testing.T) {
	db, err := Open(Config{})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if db == nil {
		t.Fatalf("expected database handle")
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "oracle"}); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}
