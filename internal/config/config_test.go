package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if cfg.API.BaseURL != "http://127.0.0.1:5006" {
		t.Errorf("expected default base URL, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 2*time.Minute {
		t.Errorf("expected 2m timeout, got %v", cfg.API.Timeout)
	}
	if cfg.Notifications.TTL != 3*time.Second {
		t.Errorf("expected 3s toast ttl, got %v", cfg.Notifications.TTL)
	}
	if !cfg.Display.Math {
		t.Error("expected math rendering enabled by default")
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
api:
  base_url: https://papers.example.org
  timeout: 0s
logging:
  level: debug
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.API.BaseURL != "https://papers.example.org" {
		t.Errorf("expected overridden base URL, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 0 {
		t.Errorf("expected disabled timeout, got %v", cfg.API.Timeout)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Display.Width != 100 {
		t.Errorf("expected default width, got %d", cfg.Display.Width)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected level 'debug', got %q", cfg.Logging.Level)
	}
}

func TestParseRejectsBadBaseURL(t *testing.T) {
	if _, err := parse([]byte("api:\n  base_url: not-a-url\n")); err == nil {
		t.Error("expected error for base URL without scheme")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("display:\n  width: 72\n"), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Display.Width != 72 {
		t.Errorf("expected width 72, got %d", cfg.Display.Width)
	}
}

func TestLoadWithoutPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Notifications.Max != 20 {
		t.Errorf("expected default max 20, got %d", cfg.Notifications.Max)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PAPERPILOT_API_URL", "http://10.0.0.5:9000")
	t.Setenv("PAPERPILOT_LOG_LEVEL", "warn")

	cfg, _ := Load("")
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.BaseURL != "http://10.0.0.5:9000" {
		t.Errorf("expected env base URL, got %q", cfg.API.BaseURL)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected env log level, got %q", cfg.Logging.Level)
	}
}

func TestResolveExplicitMissing(t *testing.T) {
	if _, err := ResolveConfigPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	defaultDir := cfg.GetDataDir()
	if defaultDir == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
}
