package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("expected missing config to be ignored: %v", err)
	}
	if cfg.API.BaseURL != nil {
		t.Fatalf("expected empty config")
	}
}

func TestLoadConfigDecodesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[api]
base-url = "http://localhost:9000"
timeout = "5s"

[dashboard]
sort = "cases"
chart-height = 12

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.API.BaseURL == nil || *cfg.API.BaseURL != "http://localhost:9000" {
		t.Fatalf("unexpected base url: %v", cfg.API.BaseURL)
	}
	if cfg.Dashboard.Sort == nil || *cfg.Dashboard.Sort != "cases" {
		t.Fatalf("unexpected sort: %v", cfg.Dashboard.Sort)
	}
	if cfg.Dashboard.ChartHeight == nil || *cfg.Dashboard.ChartHeight != 12 {
		t.Fatalf("unexpected chart height: %v", cfg.Dashboard.ChartHeight)
	}
	if cfg.Dashboard.Direction != nil {
		t.Fatalf("expected unset direction to stay nil")
	}
}

func TestLoadConfigRejectsUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[api]\nbase_url = \"x\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvAPIURL, "http://env.example")
	t.Setenv(EnvLogLevel, "")
	base := "http://file.example"
	cfg := FileConfig{API: APIConfig{BaseURL: &base}}
	ApplyEnv(&cfg)
	if *cfg.API.BaseURL != "http://env.example" {
		t.Fatalf("expected env to override base url, got %s", *cfg.API.BaseURL)
	}
	if cfg.Log.Level != nil {
		t.Fatalf("expected empty env var to be ignored")
	}
}

func TestLoadEnvFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("COVIDASH_ADDR=:9999\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv(EnvAddr, "")
	if err := os.Unsetenv(EnvAddr); err != nil {
		t.Fatalf("unset env: %v", err)
	}
	if err := LoadEnvFiles(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("load env files: %v", err)
	}
	if got := os.Getenv(EnvAddr); got != ":9999" {
		t.Fatalf("expected addr from env file, got %q", got)
	}
}

func TestDefaultPathsUseXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("XDG_STATE_HOME", dir)
	if got := DefaultConfigPath(); got != filepath.Join(dir, "covidash", "config.toml") {
		t.Fatalf("unexpected config path: %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join(dir, "covidash", "covidash.db") {
		t.Fatalf("unexpected db path: %s", got)
	}
	if got := DefaultLogPath(); got != filepath.Join(dir, "covidash", "covidash.log") {
		t.Fatalf("unexpected log path: %s", got)
	}
}
