package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoader_DefaultValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader().WithConfigFile(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("server.host = %q, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("server.port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Server.Addr() != "127.0.0.1:8000" {
		t.Errorf("Addr() = %q", cfg.Server.Addr())
	}
	if cfg.Current.CacheTTL != 30*time.Second {
		t.Errorf("current.cache_ttl = %v, want 30s", cfg.Current.CacheTTL)
	}
	if !cfg.Current.Watch {
		t.Error("current.watch should default to true")
	}
	if cfg.History.Retention != 2160*time.Hour {
		t.Errorf("history.retention = %v, want 2160h", cfg.History.Retention)
	}
	if cfg.History.MaxPerProfile != 100 {
		t.Errorf("history.max_per_profile = %d, want 100", cfg.History.MaxPerProfile)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "auto" {
		t.Errorf("log defaults = %s/%s, want info/auto", cfg.Log.Level, cfg.Log.Format)
	}
	if !cfg.Validation.CheckFiles {
		t.Error("validation.check_files should default to true")
	}
	if cfg.Validation.CheckAPIKeys {
		t.Error("validation.check_api_keys should default to false")
	}
}

func TestLoader_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: 0.0.0.0
  port: 9090
storage:
  path: /var/lib/aideconf/db.sqlite
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader().WithConfigFile(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9090 {
		t.Errorf("server = %s:%d, want 0.0.0.0:9090", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Storage.Path != "/var/lib/aideconf/db.sqlite" {
		t.Errorf("storage.path = %q", cfg.Storage.Path)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %s/%s, want debug/json", cfg.Log.Level, cfg.Log.Format)
	}
	// Untouched sections keep their defaults.
	if cfg.Current.Path != ".aideconf/config.yaml" {
		t.Errorf("current.path = %q", cfg.Current.Path)
	}
}

func TestLoader_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("AIDECONF_SERVER_PORT", "7777")
	t.Setenv("AIDECONF_LOG_LEVEL", "warn")

	cfg, err := NewLoader().WithConfigFile(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 7777 {
		t.Errorf("server.port = %d, want 7777 from env", cfg.Server.Port)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %q, want warn from env", cfg.Log.Level)
	}
}

func TestLoader_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewLoader().WithConfigFile(path).Load(); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
