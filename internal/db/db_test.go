package db

import (
	"testing"

	"github.com/docbridge/docbridge/internal/config"
)

func TestDSN(t *testing.T) {
	cfg := &config.DatabaseConfig{
		User:     "doc",
		Password: "secret",
		Host:     "127.0.0.1",
		Port:     3306,
		Database: "docbridge",
	}
	got := DSN(cfg)
	want := "doc:secret@tcp(127.0.0.1:3306)/docbridge?charset=utf8mb4&parseTime=true"
	if got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := Connect(&config.DatabaseConfig{Driver: "mongo"})
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestConnect_SQLiteMemoryAndMigrate(t *testing.T) {
	gdb, err := Connect(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	for _, m := range AllModels() {
		if !gdb.Migrator().HasTable(m) {
			t.Errorf("missing table for %T", m)
		}
	}
}

func TestReset(t *testing.T) {
	gdb, err := Connect(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	if err := Reset(gdb); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	for _, m := range AllModels() {
		if !gdb.Migrator().HasTable(m) {
			t.Errorf("missing table for %T after reset", m)
		}
	}
}
