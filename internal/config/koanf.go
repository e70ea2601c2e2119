// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/nodewatch/config.yaml",
	"/etc/nodewatch/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotEnvFile is loaded into the process environment when present.
const DotEnvFile = ".env"

// defaultConfig returns a Config with every default applied. The file and
// environment layers override these.
func defaultConfig() *Config {
	return &Config{
		UI: UIConfig{
			InstanceName:   "Freifunk",
			MinOnlineNodes: 0,
		},
		Database: DatabaseConfig{
			Driver: "duckdb",
			Path:   "/data/nodewatch.duckdb",
		},
		Secrets: SecretsConfig{
			SMTPHost: "localhost",
			SMTPPort: 25,
		},
		Reconcile: ReconcileConfig{
			Interval:      5 * time.Minute,
			FetchTimeout:  30 * time.Second,
			RetryAttempts: 2,
			RetryDelay:    2 * time.Second,
			MaxFeedBytes:  50 * 1024 * 1024,
		},
		Notify: NotifyConfig{
			SendTimeout:   30 * time.Second,
			RatePerSecond: 5,
			Burst:         10,
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8000,
			Timeout:           60 * time.Second,
			StaticDir:         "static",
			RateLimitRequests: 20,
			RateLimitWindow:   time.Minute,
			CronTimeout:       10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration with layered sources:
//
//  1. Defaults
//  2. Optional YAML config file
//  3. Environment variables (a .env file feeds this layer)
//
// The result is validated before it is returned.
func LoadWithKoanf() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadDotEnv loads DotEnvFile without overriding variables that are already set.
func loadDotEnv() error {
	if _, err := os.Stat(DotEnvFile); err != nil {
		return nil //nolint:nilerr // a missing .env is normal
	}
	return godotenv.Load(DotEnvFile)
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
var envMappings = map[string]string{
	"instance_name":    "ui.instance_name",
	"email_from":       "ui.email_from",
	"min_online_nodes": "ui.min_online_nodes",

	"root_url":       "urls.root",
	"nodes_url":      "urls.nodes",
	"sources_url":    "urls.sources",
	"stylesheet_url": "urls.stylesheet",

	"smtp_host":          "secrets.smtp_host",
	"smtp_port":          "secrets.smtp_port",
	"smtp_user":          "secrets.smtp_user",
	"smtp_password":      "secrets.smtp_password",
	"smtp_starttls":      "secrets.smtp_starttls",
	"action_signing_key": "secrets.action_signing_key",

	"db_driver": "database.driver",
	"db_path":   "database.path",
	"db_dsn":    "database.dsn",

	"reconcile_interval":       "reconcile.interval",
	"reconcile_fetch_timeout":  "reconcile.fetch_timeout",
	"reconcile_retry_attempts": "reconcile.retry_attempts",
	"reconcile_retry_delay":    "reconcile.retry_delay",
	"reconcile_max_feed_bytes": "reconcile.max_feed_bytes",

	"notify_send_timeout":    "notify.send_timeout",
	"notify_rate_per_second": "notify.rate_per_second",
	"notify_burst":           "notify.burst",

	"http_host":           "server.host",
	"http_port":           "server.port",
	"http_timeout":        "server.timeout",
	"static_dir":          "server.static_dir",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_requests",
	"rate_limit_window":   "server.rate_limit_window",
	"disable_rate_limit":  "server.rate_limit_disabled",
	"cron_token":          "server.cron_token",
	"cron_timeout":        "server.cron_timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Unmapped variables return "" and are skipped.
//
//	NODES_URL -> urls.nodes
//	ACTION_SIGNING_KEY -> secrets.action_signing_key
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
