package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "bot")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "autocalc")
}

func TestLoad(t *testing.T) {
	setRequired(t)
	t.Setenv("ADMIN_IDS", "111,222")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.AdminIDs) != 2 || cfg.AdminIDs[0] != 111 || cfg.AdminIDs[1] != 222 {
		t.Errorf("AdminIDs = %v, want [111 222]", cfg.AdminIDs)
	}
	if cfg.Timezone != "Asia/Vladivostok" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
	if cfg.SessionTTL != 0 {
		t.Errorf("SessionTTL = %s, want 0", cfg.SessionTTL)
	}
	if cfg.RateCacheTTL != time.Hour {
		t.Errorf("RateCacheTTL = %s, want 1h", cfg.RateCacheTTL)
	}
	if cfg.Database.Port != 5432 || cfg.Database.MaxOpenConns != 10 {
		t.Errorf("unexpected database config: %+v", cfg.Database)
	}
	if !strings.Contains(cfg.Database.DSN(), "dbname=autocalc") {
		t.Errorf("DSN = %q", cfg.Database.DSN())
	}
}

func TestLoad_RequiresAdmin(t *testing.T) {
	setRequired(t)
	t.Setenv("ADMIN_IDS", "")

	if _, err := Load(); err == nil {
		t.Error("expected error without admin IDs")
	}
}

func TestLoad_RejectsBadTimezone(t *testing.T) {
	setRequired(t)
	t.Setenv("ADMIN_IDS", "1")
	t.Setenv("TIMEZONE", "Mars/Olympus")

	if _, err := Load(); err == nil {
		t.Error("expected error for unknown timezone")
	}
}
