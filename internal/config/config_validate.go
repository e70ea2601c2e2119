// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package config

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/tomtom215/nodewatch/internal/logging"
)

// MinSigningKeyBytes is the minimum decoded length of the action signing key.
const MinSigningKeyBytes = 16

var validDrivers = map[string]bool{"duckdb": true, "sqlite": true, "mysql": true}

var validLogFormats = map[string]bool{"json": true, "console": true}

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateUI(); err != nil {
		return err
	}
	if err := c.validateURLs(); err != nil {
		return err
	}
	if err := c.validateSecrets(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateReconcile(); err != nil {
		return err
	}
	if err := c.validateNotify(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateUI() error {
	if c.UI.EmailFrom == "" {
		return fmt.Errorf("EMAIL_FROM is required")
	}
	if _, err := mail.ParseAddress(c.UI.EmailFrom); err != nil {
		return fmt.Errorf("EMAIL_FROM is not a valid address: %w", err)
	}
	if c.UI.MinOnlineNodes < 0 {
		return fmt.Errorf("MIN_ONLINE_NODES must not be negative")
	}
	return nil
}

func (c *Config) validateURLs() error {
	if c.URLs.Root == "" {
		return fmt.Errorf("ROOT_URL is required")
	}
	if err := validateBaseURL(c.URLs.Root, "ROOT_URL"); err != nil {
		return err
	}
	if c.URLs.Nodes == "" {
		return fmt.Errorf("NODES_URL is required")
	}
	if err := validateHTTPURL(c.URLs.Nodes, "NODES_URL"); err != nil {
		return err
	}
	if c.URLs.Sources != "" {
		if err := validateHTTPURL(c.URLs.Sources, "SOURCES_URL"); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateSecrets() error {
	if c.Secrets.ActionSigningKey == "" {
		return fmt.Errorf("ACTION_SIGNING_KEY is required")
	}
	key, err := c.Secrets.SigningKey()
	if err != nil {
		return err
	}
	if len(key) < MinSigningKeyBytes {
		return fmt.Errorf("ACTION_SIGNING_KEY must decode to at least %d bytes, got %d", MinSigningKeyBytes, len(key))
	}
	if c.Secrets.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must not be empty")
	}
	if c.Secrets.SMTPPort < 1 || c.Secrets.SMTPPort > 65535 {
		return fmt.Errorf("SMTP_PORT must be between 1 and 65535")
	}
	if (c.Secrets.SMTPUser == "") != (c.Secrets.SMTPPassword == "") {
		return fmt.Errorf("SMTP_USER and SMTP_PASSWORD must be set together")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	driver := strings.ToLower(c.Database.Driver)
	if !validDrivers[driver] {
		return fmt.Errorf("DB_DRIVER must be one of: duckdb, sqlite, mysql")
	}
	c.Database.Driver = driver
	if driver == "mysql" {
		if c.Database.DSN == "" {
			return fmt.Errorf("DB_DSN is required when DB_DRIVER=mysql")
		}
		return nil
	}
	if c.Database.Path == "" {
		return fmt.Errorf("DB_PATH is required when DB_DRIVER=%s", driver)
	}
	return nil
}

func (c *Config) validateReconcile() error {
	if c.Reconcile.Interval < 0 {
		return fmt.Errorf("RECONCILE_INTERVAL must not be negative")
	}
	if c.Reconcile.FetchTimeout <= 0 {
		return fmt.Errorf("RECONCILE_FETCH_TIMEOUT must be positive")
	}
	if c.Reconcile.RetryAttempts < 0 {
		return fmt.Errorf("RECONCILE_RETRY_ATTEMPTS must not be negative")
	}
	if c.Reconcile.MaxFeedBytes <= 0 {
		return fmt.Errorf("RECONCILE_MAX_FEED_BYTES must be positive")
	}
	return nil
}

func (c *Config) validateNotify() error {
	if c.Notify.SendTimeout <= 0 {
		return fmt.Errorf("NOTIFY_SEND_TIMEOUT must be positive")
	}
	if c.Notify.RatePerSecond <= 0 {
		return fmt.Errorf("NOTIFY_RATE_PER_SECOND must be positive")
	}
	if c.Notify.Burst < 1 {
		return fmt.Errorf("NOTIFY_BURST must be at least 1")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if !c.Server.RateLimitDisabled && (c.Server.RateLimitRequests < 1 || c.Server.RateLimitWindow <= 0) {
		return fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive unless DISABLE_RATE_LIMIT=true")
	}
	if c.Server.CronTimeout < 0 {
		return fmt.Errorf("CRON_TIMEOUT must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error, fatal, panic, disabled")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
