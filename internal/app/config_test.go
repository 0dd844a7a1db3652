package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yungbote/saarthak-backend/internal/lifecycle"
)

func TestDurationSetting(t *testing.T) {
	cases := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"3600", time.Hour, false},
		{" 90 ", 90 * time.Second, false},
		{"15m", 15 * time.Minute, false},
		{"1h30m", 90 * time.Minute, false},
		{"-5", 0, true},
		{"soon", 0, true},
	}
	for _, tc := range cases {
		got, err := durationSetting(tc.raw)
		if (err != nil) != tc.wantErr {
			t.Fatalf("durationSetting(%q) err=%v wantErr=%v", tc.raw, err, tc.wantErr)
		}
		if !tc.wantErr && got != tc.want {
			t.Fatalf("durationSetting(%q)=%v want %v", tc.raw, got, tc.want)
		}
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CACHE_BACKEND", "")
	t.Setenv("ACCESS_TOKEN_TTL", "")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.AccessTokenTTL != time.Hour {
		t.Fatalf("access ttl: got %v", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 24*time.Hour {
		t.Fatalf("refresh ttl: got %v", cfg.RefreshTokenTTL)
	}
	if cfg.FormTTL != lifecycle.DefaultFormTTL {
		t.Fatalf("form ttl: got %v", cfg.FormTTL)
	}
	if cfg.Cache.Backend != cacheBackendMemory {
		t.Fatalf("cache backend: got %q", cfg.Cache.Backend)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("address: got %q", cfg.Address())
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saarthak.yaml")
	body := "port: \"9090\"\ndb_driver: sqlite\nform_ttl: 10m\ncors_allowed_origins: \"https://a.example, https://b.example\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PORT", "7070")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "7070" {
		t.Fatalf("env should win over file: port=%q", cfg.Port)
	}
	if cfg.DB.Driver != "sqlite" {
		t.Fatalf("db driver from file: got %q", cfg.DB.Driver)
	}
	if cfg.FormTTL != 10*time.Minute {
		t.Fatalf("form ttl from file: got %v", cfg.FormTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("cors origins: got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfigRejectsRedisWithoutAddr(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "")
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for redis cache without address")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
