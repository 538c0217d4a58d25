package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	figerr "github.com/matzehuels/d3fig/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := Default()
	if *cfg != *want {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, want)
	}
}

func TestLoadDefaultPathFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	dir := filepath.Join(home, "d3fig")
	os.MkdirAll(dir, 0755)
	os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`serve_retries = 3`), 0644)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ServeRetries != 3 {
		t.Errorf("ServeRetries = %d, want 3", cfg.ServeRetries)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
d3_url = "https://cdn.example.com/d3.js"
cache_backend = "redis"
cache_ttl = "72h"
redis_db = 2
store_backend = "memory"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.D3URL != "https://cdn.example.com/d3.js" {
		t.Errorf("D3URL = %s", cfg.D3URL)
	}
	if cfg.CacheBackend != CacheRedis || cfg.RedisDB != 2 || cfg.CacheTTL != 72*time.Hour {
		t.Errorf("cache settings = %s %d %v", cfg.CacheBackend, cfg.RedisDB, cfg.CacheTTL)
	}
	if cfg.StoreBackend != StoreMemory {
		t.Errorf("StoreBackend = %s", cfg.StoreBackend)
	}
	// Unset keys keep their defaults.
	if cfg.MPLD3URL != Default().MPLD3URL {
		t.Errorf("MPLD3URL = %s, want default", cfg.MPLD3URL)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `cache_backend = "redis"`)
	t.Setenv("D3FIG_CACHE_BACKEND", "none")
	t.Setenv("D3FIG_SERVE_ADDR", "0.0.0.0:9000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.CacheBackend != CacheNone {
		t.Errorf("CacheBackend = %s, want env override", cfg.CacheBackend)
	}
	if cfg.ServeAddr != "0.0.0.0:9000" {
		t.Errorf("ServeAddr = %s", cfg.ServeAddr)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code figerr.Code
	}{
		{"syntax", `cache_backend = `, figerr.ErrCodeInvalidFormat},
		{"unknown key", `colour = "red"`, figerr.ErrCodeInvalidFormat},
		{"bad cache backend", `cache_backend = "memcached"`, figerr.ErrCodeInvalidInput},
		{"bad store backend", `store_backend = "s3"`, figerr.ErrCodeInvalidInput},
		{"negative retries", `serve_retries = -1`, figerr.ErrCodeInvalidInput},
		{"javascript url", `d3_url = "javascript:alert(1)"`, figerr.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if !figerr.Is(err, tt.code) {
				t.Errorf("Load() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Load() should fail when an explicit path is missing")
	}
}

func TestLoadBadEnv(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("D3FIG_REDIS_DB", "two")
	if _, err := Load(""); !figerr.Is(err, figerr.ErrCodeInvalidInput) {
		t.Errorf("Load() error = %v, want INVALID_INPUT", err)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/etc/xdg")
	p, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if p != filepath.Join("/etc/xdg", "d3fig", "config.toml") {
		t.Errorf("DefaultPath() = %s", p)
	}
}
