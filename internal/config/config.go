// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

// Package config loads NodeWatch configuration from defaults, an optional
// YAML file and environment variables (highest priority wins).
package config

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	UI        UIConfig        `koanf:"ui"`
	URLs      URLsConfig      `koanf:"urls"`
	Secrets   SecretsConfig   `koanf:"secrets"`
	Database  DatabaseConfig  `koanf:"database"`
	Reconcile ReconcileConfig `koanf:"reconcile"`
	Notify    NotifyConfig    `koanf:"notify"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// UIConfig holds the instance presentation settings shown on pages and in
// emails.
type UIConfig struct {
	// InstanceName is the community name, e.g. "Freifunk Aachen".
	InstanceName string `koanf:"instance_name"`

	// EmailFrom is the envelope sender address for all outgoing mail.
	EmailFrom string `koanf:"email_from"`

	// MinOnlineNodes aborts a reconciliation when the feed reports fewer
	// online nodes. 0 disables the guard.
	MinOnlineNodes int `koanf:"min_online_nodes"`
}

// URLsConfig holds external and self-referencing URLs.
type URLsConfig struct {
	// Root is the public base URL of this instance, used to build links in emails.
	Root string `koanf:"root"`

	// Nodes is the URL of the nodes.json feed (version 2).
	Nodes string `koanf:"nodes"`

	// Sources links to the running source code (AGPL).
	Sources string `koanf:"sources"`

	// Stylesheet is an optional extra stylesheet URL.
	Stylesheet string `koanf:"stylesheet"`
}

// Absolute joins a path and query onto Root.
//
//	cfg.URLs.Absolute("list", url.Values{"email": {addr}})
func (u URLsConfig) Absolute(path string, query url.Values) string {
	s := strings.TrimSuffix(u.Root, "/") + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		s += "?" + query.Encode()
	}
	return s
}

// SecretsConfig holds credentials. Never log these values.
type SecretsConfig struct {
	SMTPHost     string `koanf:"smtp_host"`
	SMTPPort     int    `koanf:"smtp_port"`
	SMTPUser     string `koanf:"smtp_user"`
	SMTPPassword string `koanf:"smtp_password"`
	SMTPStartTLS bool   `koanf:"smtp_starttls"`

	// ActionSigningKey is the hex encoded secret used to sign action tokens.
	ActionSigningKey string `koanf:"action_signing_key"`
}

// SigningKey decodes ActionSigningKey.
func (s SecretsConfig) SigningKey() ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s.ActionSigningKey))
	if err != nil {
		return nil, fmt.Errorf("action_signing_key is not valid hex: %w", err)
	}
	return key, nil
}

// DatabaseConfig selects the SQL driver and location.
type DatabaseConfig struct {
	// Driver is one of duckdb, sqlite, mysql.
	Driver string `koanf:"driver"`

	// Path is the database file for duckdb and sqlite. ":memory:" is allowed.
	Path string `koanf:"path"`

	// DSN is the data source name for mysql, e.g. "user:pass@tcp(db:3306)/nodewatch".
	DSN string `koanf:"dsn"`
}

// ReconcileConfig controls the periodic feed reconciliation.
type ReconcileConfig struct {
	// Interval between runs. 0 disables the internal timer so that only
	// /cron or nodewatchctl trigger runs.
	Interval time.Duration `koanf:"interval"`

	FetchTimeout  time.Duration `koanf:"fetch_timeout"`
	RetryAttempts int           `koanf:"retry_attempts"`
	RetryDelay    time.Duration `koanf:"retry_delay"`
	MaxFeedBytes  int64         `koanf:"max_feed_bytes"`
}

// NotifyConfig controls outgoing mail.
type NotifyConfig struct {
	SendTimeout   time.Duration `koanf:"send_timeout"`
	RatePerSecond float64       `koanf:"rate_per_second"`
	Burst         int           `koanf:"burst"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host      string        `koanf:"host"`
	Port      int           `koanf:"port"`
	Timeout   time.Duration `koanf:"timeout"`
	StaticDir string        `koanf:"static_dir"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// CronToken, when set, must accompany /cron requests.
	CronToken string `koanf:"cron_token"`

	// CronTimeout replaces Timeout as the write deadline of /cron, whose
	// response waits for a whole reconciliation including fetch retries
	// and mail fan-out. 0 keeps Timeout.
	CronTimeout time.Duration `koanf:"cron_timeout"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}
