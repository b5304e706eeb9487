package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Scheduler.DiscoveryCron != "0 3 * * 1" {
		t.Fatalf("discovery cron = %q", cfg.Scheduler.DiscoveryCron)
	}
	if cfg.Scheduler.RefreshCron != "0 4 1 * *" {
		t.Fatalf("refresh cron = %q", cfg.Scheduler.RefreshCron)
	}
	if cfg.Search.BaseURL == "" || cfg.LLM.BaseURL == "" {
		t.Fatal("defaults must carry API base URLs")
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("default level = %q", cfg.Logging.Level)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := []byte(`
logging:
  level: debug
scheduler:
  discoveryCron: "0 6 * * 2"
llm:
  model: custom-model
`)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SOLARPUNKLIST_CONFIG", path)
	t.Setenv("EXA_API_KEY", "exa-secret")
	t.Setenv("ANTHROPIC_MODEL", "env-model")

	cfg := Load()

	if cfg.Logging.Level != "debug" {
		t.Fatalf("level = %q, want file override", cfg.Logging.Level)
	}
	if cfg.Scheduler.DiscoveryCron != "0 6 * * 2" {
		t.Fatalf("discovery cron = %q, want file override", cfg.Scheduler.DiscoveryCron)
	}
	if cfg.Scheduler.RefreshCron != "0 4 1 * *" {
		t.Fatal("unset file fields keep defaults")
	}
	if cfg.Search.APIKey != "exa-secret" {
		t.Fatalf("search key = %q, want env override", cfg.Search.APIKey)
	}
	if cfg.LLM.Model != "env-model" {
		t.Fatalf("model = %q, env must beat the file", cfg.LLM.Model)
	}
}

func TestLoadToleratesMissingFile(t *testing.T) {
	t.Setenv("SOLARPUNKLIST_CONFIG", "/does/not/exist.yaml")

	cfg := Load()
	if cfg.Database.DSN == "" {
		t.Fatal("unreadable config file must fall back to defaults")
	}
}
