package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Fatalf("unexpected port %s", cfg.Server.Port)
	}
	if cfg.TaskStore.Driver != "postgres" {
		t.Fatalf("unexpected task store driver %s", cfg.TaskStore.Driver)
	}
	if cfg.Dispatch.MaxAttempts != 3 {
		t.Fatalf("unexpected max attempts %d", cfg.Dispatch.MaxAttempts)
	}
	if cfg.Dispatch.BackoffBase != time.Second || cfg.Dispatch.BackoffCap != 30*time.Second {
		t.Fatalf("unexpected backoff policy %+v", cfg.Dispatch)
	}
	if cfg.Reconcile.MissingTolerance != 3 {
		t.Fatalf("unexpected missing tolerance %d", cfg.Reconcile.MissingTolerance)
	}
	// Development keeps the original one-minute check cycle
	if cfg.Reconcile.Interval != time.Minute {
		t.Fatalf("expected 1m dev interval, got %s", cfg.Reconcile.Interval)
	}
}

func TestLoad_ProductionInterval(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Reconcile.Interval != 15*time.Minute {
		t.Fatalf("expected 15m production interval, got %s", cfg.Reconcile.Interval)
	}
}

func TestLoad_ExplicitIntervalWins(t *testing.T) {
	t.Setenv("RECONCILE_INTERVAL", "5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Reconcile.Interval != 5*time.Minute {
		t.Fatalf("expected explicit 5m interval, got %s", cfg.Reconcile.Interval)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"zero attempts", "DISPATCH_MAX_ATTEMPTS", "0"},
		{"zero tolerance", "RECONCILE_MISSING_TOLERANCE", "0"},
		{"unknown driver", "TASKSTORE_DRIVER", "etcd"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected validation error for %s=%s", tc.key, tc.value)
			}
		})
	}
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Host = "db.internal"
	cfg.Database.Port = "5433"
	cfg.Database.User = "svc"
	cfg.Database.Password = "secret"
	cfg.Database.Name = "autopilot"
	cfg.Database.SSLMode = "require"

	want := "host=db.internal port=5433 user=svc password=secret dbname=autopilot sslmode=require"
	if got := cfg.GetDatabaseDSN(); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
