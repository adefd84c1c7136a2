package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CURRENCY", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("JWT_ACCESS_EXPIRES_IN", "")
	t.Setenv("TIMEZONE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Currency != "USD" {
		t.Errorf("expected USD, got %s", cfg.Currency)
	}
	if cfg.DBDriver != "postgres" {
		t.Errorf("expected postgres driver, got %s", cfg.DBDriver)
	}
	if cfg.AccessTokenExpiry != 15*time.Minute {
		t.Errorf("expected 15m access expiry, got %s", cfg.AccessTokenExpiry)
	}
	if cfg.Location != time.UTC {
		t.Errorf("expected UTC location, got %s", cfg.Location)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("unknown currency", func(t *testing.T) {
		t.Setenv("CURRENCY", "ZZZ")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for unknown currency")
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "mysql")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for unknown driver")
		}
	})

	t.Run("bad duration falls back", func(t *testing.T) {
		t.Setenv("JWT_ACCESS_EXPIRES_IN", "soon")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.AccessTokenExpiry != 15*time.Minute {
			t.Errorf("expected fallback to 15m, got %s", cfg.AccessTokenExpiry)
		}
	})
}
