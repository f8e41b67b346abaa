package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.API.BaseURL != "https://api.author.today" {
		t.Errorf("base_url = %q", cfg.API.BaseURL)
	}
	if cfg.Download.Concurrency != 3 {
		t.Errorf("concurrency = %d, want 3", cfg.Download.Concurrency)
	}
	if cfg.Download.MaxAttempts != 3 {
		t.Errorf("max_attempts = %d, want 3", cfg.Download.MaxAttempts)
	}
	if !cfg.Download.SkipExisting {
		t.Error("skip_existing should default to true")
	}
	if cfg.API.MinIntervalMS != 2000 {
		t.Errorf("min_interval_ms = %d, want 2000", cfg.API.MinIntervalMS)
	}
	if cfg.UI.Progress != "auto" {
		t.Errorf("ui.progress = %q, want auto", cfg.UI.Progress)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
api:
  base_url: https://api.example.test
  min_interval_ms: 500
download:
  out_dir: /tmp/books
  concurrency: 5
ui:
  progress: line
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.API.BaseURL != "https://api.example.test" {
		t.Errorf("base_url = %q", cfg.API.BaseURL)
	}
	if cfg.API.MinIntervalMS != 500 {
		t.Errorf("min_interval_ms = %d", cfg.API.MinIntervalMS)
	}
	if cfg.Download.OutDir != "/tmp/books" {
		t.Errorf("out_dir = %q", cfg.Download.OutDir)
	}
	if cfg.Download.Concurrency != 5 {
		t.Errorf("concurrency = %d", cfg.Download.Concurrency)
	}
	if cfg.UI.Progress != "line" {
		t.Errorf("progress = %q", cfg.UI.Progress)
	}
	// Untouched keys keep their defaults.
	if cfg.Download.MaxAttempts != 3 {
		t.Errorf("max_attempts = %d, want default 3", cfg.Download.MaxAttempts)
	}
}

func TestLoadExplicitMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadRejectsBadProgress(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("ui:\n  progress: fancy\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown ui.progress value")
	}
}

func TestLoadClampsZeroValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "download:\n  concurrency: 0\n  max_attempts: -1\napi:\n  min_interval_ms: 0\n"
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Download.Concurrency != 3 {
		t.Errorf("concurrency = %d, want clamped 3", cfg.Download.Concurrency)
	}
	if cfg.Download.MaxAttempts != 3 {
		t.Errorf("max_attempts = %d, want clamped 3", cfg.Download.MaxAttempts)
	}
	if cfg.API.MinIntervalMS != 2000 {
		t.Errorf("min_interval_ms = %d, want clamped 2000", cfg.API.MinIntervalMS)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("AT_CLI_DOWNLOAD_CONCURRENCY", "7")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Download.Concurrency != 7 {
		t.Errorf("concurrency = %d, want env override 7", cfg.Download.Concurrency)
	}
}
