package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/raceday")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("JWT_TTL", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("R2_ACCOUNT_ID", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want 8080", cfg.ServerPort)
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Errorf("JWTTTL = %s, want 24h", cfg.JWTTTL)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
	if cfg.IsDevelopment() {
		t.Error("default environment must not be development")
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.StorageConfigured() {
		t.Error("storage must not be configured without R2 variables")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database url", map[string]string{"DATABASE_URL": "", "JWT_SECRET_KEY": "s"}},
		{"missing jwt secret", map[string]string{"DATABASE_URL": "postgres://x", "JWT_SECRET_KEY": ""}},
		{"bad port", map[string]string{"DATABASE_URL": "postgres://x", "JWT_SECRET_KEY": "s", "SERVER_PORT": "70000"}},
		{"bad ttl", map[string]string{"DATABASE_URL": "postgres://x", "JWT_SECRET_KEY": "s", "JWT_TTL": "soon"}},
		{"bad env", map[string]string{"DATABASE_URL": "postgres://x", "JWT_SECRET_KEY": "s", "APP_ENV": "staging"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"SERVER_PORT", "JWT_TTL", "APP_ENV", "LOG_LEVEL"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" https://a.example , ,https://b.example")
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Errorf("splitList() = %v", got)
	}
}
