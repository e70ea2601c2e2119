// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

// Package store persists the node directory and subscriptions.
//
// Two relations are kept:
//
//	nodes    (id PK, name, online)
//	monitors (id, email, PK(id, email))
//
// The same SQL runs on DuckDB (default), SQLite and MySQL. Differences are
// confined to the dialect type.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registered database/sql drivers.
	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/tomtom215/nodewatch/internal/config"
	"github.com/tomtom215/nodewatch/internal/logging"
	"github.com/tomtom215/nodewatch/internal/metrics"
)

// ErrNodeNotFound is returned by GetNode for an unknown id.
var ErrNodeNotFound = errors.New("node not found")

const (
	// DriverDuckDB is the default embedded database.
	DriverDuckDB = "duckdb"
	// DriverSQLite uses the pure Go modernc.org/sqlite driver.
	DriverSQLite = "sqlite"
	// DriverMySQL uses github.com/go-sql-driver/mysql.
	DriverMySQL = "mysql"

	pingTimeout = 5 * time.Second
)

// Open opens and pings the database selected by cfg.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch cfg.Driver {
	case DriverDuckDB:
		if err := ensureDir(cfg.Path); err != nil {
			return nil, err
		}
		db, err = sql.Open("duckdb", cfg.Path)
	case DriverSQLite:
		if err := ensureDir(cfg.Path); err != nil {
			return nil, err
		}
		db, err = sql.Open("sqlite", "file:"+cfg.Path+"?_pragma=busy_timeout=5000")
		if err == nil {
			// SQLite allows one writer; a single connection also keeps
			// ":memory:" databases shared.
			db.SetMaxOpenConns(1)
		}
	case DriverMySQL:
		var dsn string
		dsn, err = mysqlDSN(cfg.DSN)
		if err != nil {
			return nil, err
		}
		db, err = sql.Open("mysql", dsn)
		if err == nil {
			db.SetConnMaxLifetime(time.Hour)
			db.SetMaxIdleConns(5)
			db.SetMaxOpenConns(20)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", cfg.Driver, err)
	}

	logging.Info().Str("driver", cfg.Driver).Str("path", cfg.Path).Msg("Database opened")
	return db, nil
}

// mysqlDSN normalizes a MySQL DSN. Multi statements stay disabled and
// strings are UTF-8.
func mysqlDSN(raw string) (string, error) {
	parsed, err := mysql.ParseDSN(raw)
	if err != nil {
		return "", fmt.Errorf("invalid mysql DSN: %w", err)
	}
	parsed.MultiStatements = false
	parsed.ParseTime = true
	if parsed.Params == nil {
		parsed.Params = map[string]string{}
	}
	if _, ok := parsed.Params["charset"]; !ok {
		parsed.Params["charset"] = "utf8mb4"
	}
	return parsed.FormatDSN(), nil
}

func ensureDir(path string) error {
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}

// SQLStore implements node and subscription persistence over database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

// New creates a store on an open database. driver selects the SQL dialect.
func New(db *sql.DB, driver string) (*SQLStore, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	return &SQLStore{db: db, dialect: d}, nil
}

// Ping checks connectivity for readiness probes.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// InitSchema creates tables and indexes if they do not exist.
func (s *SQLStore) InitSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		start := time.Now()
		_, err := s.db.ExecContext(ctx, stmt.sql)
		metrics.RecordDBQuery("create", stmt.table, time.Since(start), err)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", stmt.name, err)
		}
	}
	return nil
}
