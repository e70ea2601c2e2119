// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package store

type schemaStmt struct {
	name  string
	table string
	sql   string
}

// dialect holds the statements that differ between drivers. All drivers
// accept "?" placeholders.
type dialect struct {
	schema []schemaStmt

	// insertMonitor must not fail on a duplicate (id, email) and must report
	// one affected row only when a row was inserted.
	insertMonitor string
}

var dialects = map[string]dialect{
	DriverDuckDB: {
		schema: []schemaStmt{
			{"nodes table", "nodes", `
				CREATE TABLE IF NOT EXISTS nodes (
					id VARCHAR PRIMARY KEY,
					name VARCHAR NOT NULL,
					online BOOLEAN NOT NULL
				)`},
			{"monitors table", "monitors", `
				CREATE TABLE IF NOT EXISTS monitors (
					id VARCHAR NOT NULL,
					email VARCHAR NOT NULL,
					PRIMARY KEY (id, email)
				)`},
			{"monitors email index", "monitors", `CREATE INDEX IF NOT EXISTS idx_monitors_email ON monitors(email)`},
		},
		insertMonitor: `INSERT INTO monitors (id, email) VALUES (?, ?) ON CONFLICT DO NOTHING`,
	},
	DriverSQLite: {
		schema: []schemaStmt{
			{"nodes table", "nodes", `
				CREATE TABLE IF NOT EXISTS nodes (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					online BOOLEAN NOT NULL
				)`},
			{"monitors table", "monitors", `
				CREATE TABLE IF NOT EXISTS monitors (
					id TEXT NOT NULL,
					email TEXT NOT NULL,
					PRIMARY KEY (id, email)
				)`},
			{"monitors email index", "monitors", `CREATE INDEX IF NOT EXISTS idx_monitors_email ON monitors(email)`},
		},
		insertMonitor: `INSERT INTO monitors (id, email) VALUES (?, ?) ON CONFLICT DO NOTHING`,
	},
	DriverMySQL: {
		schema: []schemaStmt{
			{"nodes table", "nodes", `
				CREATE TABLE IF NOT EXISTS nodes (
					id VARCHAR(128) NOT NULL PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					online BOOLEAN NOT NULL
				) CHARACTER SET utf8mb4`},
			{"monitors table", "monitors", `
				CREATE TABLE IF NOT EXISTS monitors (
					id VARCHAR(128) NOT NULL,
					email VARCHAR(254) NOT NULL,
					PRIMARY KEY (id, email),
					INDEX idx_monitors_email (email)
				) CHARACTER SET utf8mb4`},
		},
		insertMonitor: `INSERT IGNORE INTO monitors (id, email) VALUES (?, ?)`,
	},
}
