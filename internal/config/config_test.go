package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("ENEL_REGISTRY_XLSX", "/data/registry.xlsx")
	t.Setenv("CONSUMPTION_THRESHOLD_PCT", "175")
	t.Setenv("EXTRACT_WORKERS", "8")
	t.Setenv("ENEL_CONFIG", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.RegistryPath != "/data/registry.xlsx" {
		t.Fatalf("registry = %q", cfg.RegistryPath)
	}
	if cfg.ThresholdPct != 175 {
		t.Fatalf("threshold = %v", cfg.ThresholdPct)
	}
	if cfg.Workers != 8 {
		t.Fatalf("workers = %d", cfg.Workers)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("addr = %q", cfg.HTTPAddr)
	}
	if cfg.BaselineWindow != 6 {
		t.Fatalf("window = %d", cfg.BaselineWindow)
	}
}

func TestLoadConfigYAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `registry_path: /mnt/registry.xlsx
webhook_url: https://hooks.example/abc
threshold_pct: 200
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv("ENEL_REGISTRY_XLSX", "")
	t.Setenv("ENEL_CONFIG", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.RegistryPath != "/mnt/registry.xlsx" {
		t.Fatalf("registry = %q", cfg.RegistryPath)
	}
	if cfg.WebhookURL != "https://hooks.example/abc" {
		t.Fatalf("webhook = %q", cfg.WebhookURL)
	}
	if cfg.ThresholdPct != 200 {
		t.Fatalf("threshold = %v", cfg.ThresholdPct)
	}
}

func TestLoadConfigRequiresRegistry(t *testing.T) {
	t.Setenv("ENEL_REGISTRY_XLSX", "")
	t.Setenv("ENEL_CONFIG", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error without registry path")
	}
}
