// Package config loads pipeline configuration from the environment,
// optionally overridden by a yaml file named in ENEL_CONFIG.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines pipeline configuration.
type Config struct {
	DatabaseURL  string `yaml:"database_url"`
	HTTPAddr     string `yaml:"http_addr"`
	InvoiceDir   string `yaml:"invoice_dir"`
	RegistryPath string `yaml:"registry_path"`
	// RegistrySheet selects a sheet in the registry workbook; empty
	// means the first sheet.
	RegistrySheet string `yaml:"registry_sheet"`
	ReportDir     string `yaml:"report_dir"`

	WebhookURL    string `yaml:"webhook_url"`
	AlertTemplate string `yaml:"alert_template"`

	ThresholdPct   float64 `yaml:"threshold_pct"`
	BaselineWindow int     `yaml:"baseline_window"`
	Workers        int     `yaml:"workers"`

	JWTSecret string `yaml:"jwt_secret"`
}

// LoadConfig loads config from yaml or env. The registry workbook
// path is required: without it a run cannot reconcile anything.
func LoadConfig() (Config, error) {
	cfg := Config{
		DatabaseURL:    getenvDefault("DATABASE_URL", os.Getenv("PG_DSN")),
		HTTPAddr:       getenvDefault("HTTP_ADDR", ":8080"),
		InvoiceDir:     getenvDefault("ENEL_INVOICE_DIR", filepath.FromSlash("var/invoices")),
		RegistryPath:   os.Getenv("ENEL_REGISTRY_XLSX"),
		RegistrySheet:  os.Getenv("ENEL_REGISTRY_SHEET"),
		ReportDir:      getenvDefault("ENEL_REPORT_DIR", filepath.FromSlash("var/reports")),
		WebhookURL:     os.Getenv("ALERT_WEBHOOK_URL"),
		AlertTemplate:  os.Getenv("ALERT_TEMPLATE"),
		ThresholdPct:   getenvFloatDefault("CONSUMPTION_THRESHOLD_PCT", 150),
		BaselineWindow: getenvIntDefault("BASELINE_WINDOW_MONTHS", 6),
		Workers:        getenvIntDefault("EXTRACT_WORKERS", 4),
		JWTSecret:      getenvDefault("AUTH_JWT_SECRET", os.Getenv("JWT_SECRET")),
	}

	if path := os.Getenv("ENEL_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.RegistryPath == "" {
		return cfg, errors.New("config: registry workbook path required (ENEL_REGISTRY_XLSX)")
	}
	if cfg.ThresholdPct <= 0 {
		cfg.ThresholdPct = 150
	}
	if cfg.BaselineWindow <= 0 {
		cfg.BaselineWindow = 6
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
