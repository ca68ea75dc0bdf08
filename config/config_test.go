package config

import (
	"testing"
	"time"

	"github.com/Dosada05/fjj-brasileirao/brackets"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/fjj?sslmode=disable")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("ADMIN_PASSWORD_HASH", "$2a$10$hash")
	for _, key := range []string{
		"SERVER_PORT", "CORS_ALLOWED_ORIGINS", "SYNC_INTERVAL", "GROUP_SCHEDULE",
		"REMOTE_STORE_URL", "REMOTE_STORE_ACCESS_KEY_ID", "REMOTE_STORE_SECRET_ACCESS_KEY",
		"REMOTE_STORE_BUCKET", "REMOTE_STORE_REGION", "REMOTE_STORE_PREFIX",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerPort != 8080 {
		t.Fatalf("expected port 8080, got %d", cfg.ServerPort)
	}
	if cfg.SyncInterval != 10*time.Second {
		t.Fatalf("expected 10s sync interval, got %s", cfg.SyncInterval)
	}
	if cfg.GroupSchedule != brackets.MatchDayCircle {
		t.Fatalf("expected circle schedule, got %s", cfg.GroupSchedule)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("expected wildcard origin, got %v", cfg.AllowedOrigins)
	}
	if cfg.RemoteStore.Enabled() {
		t.Fatalf("remote store must be disabled without credentials")
	}
	if cfg.RemoteStore.Region != "auto" || cfg.RemoteStore.Prefix != "fjj" {
		t.Fatalf("unexpected remote defaults %+v", cfg.RemoteStore)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("SYNC_INTERVAL", "30s")
	t.Setenv("GROUP_SCHEDULE", "bucketed")
	t.Setenv("REMOTE_STORE_URL", "https://acc.r2.cloudflarestorage.com")
	t.Setenv("REMOTE_STORE_ACCESS_KEY_ID", "id")
	t.Setenv("REMOTE_STORE_SECRET_ACCESS_KEY", "key")
	t.Setenv("REMOTE_STORE_BUCKET", "league")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerPort != 9000 || cfg.SyncInterval != 30*time.Second {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.GroupSchedule != brackets.MatchDayBucketed {
		t.Fatalf("expected bucketed schedule, got %s", cfg.GroupSchedule)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if !cfg.RemoteStore.Enabled() {
		t.Fatalf("expected remote store to be enabled")
	}
}

func TestLoadRemoteStoreNeedsAllCredentials(t *testing.T) {
	setRequired(t)
	t.Setenv("REMOTE_STORE_URL", "https://acc.r2.cloudflarestorage.com")
	t.Setenv("REMOTE_STORE_BUCKET", "league")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RemoteStore.Enabled() {
		t.Fatalf("remote store must stay disabled without keys")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"missing database url", "DATABASE_URL", ""},
		{"missing jwt secret", "JWT_SECRET_KEY", ""},
		{"missing password hash", "ADMIN_PASSWORD_HASH", ""},
		{"bad port", "SERVER_PORT", "http"},
		{"port out of range", "SERVER_PORT", "70000"},
		{"bad interval", "SYNC_INTERVAL", "soon"},
		{"interval too short", "SYNC_INTERVAL", "2s"},
		{"unknown schedule", "GROUP_SCHEDULE", "swiss"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}
