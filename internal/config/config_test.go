package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("AUTH_OPEN_LOGIN", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Driver != DriverMemory {
		t.Errorf("expected memory driver by default, got %q", cfg.Storage.Driver)
	}
	if cfg.Tasks.DefaultCategory != "Personal" {
		t.Errorf("unexpected default category %q", cfg.Tasks.DefaultCategory)
	}
	if cfg.Database.URL != "postgres://taskflow:@localhost:5432/taskflow?sslmode=disable" {
		t.Errorf("unexpected dsn %q", cfg.Database.URL)
	}
	if cfg.Auth.OpenLogin {
		t.Error("open login must be off unless explicitly enabled")
	}
	if cfg.Address() != "0.0.0.0:8080" {
		t.Errorf("unexpected address %q", cfg.Address())
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("STATS_RECONCILE_INTERVAL", "45")
	t.Setenv("BREAKER_TIMEOUT", "2m")
	t.Setenv("TASKS_SORT_LOCALE", "de")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Driver != DriverPostgres {
		t.Errorf("expected postgres driver, got %q", cfg.Storage.Driver)
	}
	if cfg.Stats.ReconcileInterval != 45*time.Second {
		t.Errorf("expected 45s reconcile interval, got %s", cfg.Stats.ReconcileInterval)
	}
	if cfg.Breaker.Timeout != 2*time.Minute {
		t.Errorf("expected 2m breaker timeout, got %s", cfg.Breaker.Timeout)
	}
	if cfg.Tasks.SortLocale != "de" {
		t.Errorf("unexpected locale %q", cfg.Tasks.SortLocale)
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "cassandra")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
