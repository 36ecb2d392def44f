package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("unexpected port: %s", cfg.Port)
	}
	if cfg.FetchInterval != 15*time.Minute {
		t.Fatalf("unexpected fetch interval: %v", cfg.FetchInterval)
	}
	if cfg.StoreBackend != BackendMemory {
		t.Fatalf("unexpected store backend: %s", cfg.StoreBackend)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FETCH_INTERVAL", "5m")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/wt.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.FetchInterval != 5*time.Minute {
		t.Fatalf("unexpected fetch interval: %v", cfg.FetchInterval)
	}
	if cfg.StoreBackend != BackendSQLite || cfg.SQLitePath != "/tmp/wt.db" {
		t.Fatalf("unexpected store config: %+v", cfg)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("FETCH_INTERVAL", "often")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid FETCH_INTERVAL")
	}

	t.Setenv("FETCH_INTERVAL", "15m")
	t.Setenv("STORE_BACKEND", "redis")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid STORE_BACKEND")
	}
}
