// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/nodewatch/internal/logging"
	"github.com/tomtom215/nodewatch/internal/metrics"
	"github.com/tomtom215/nodewatch/internal/models"
)

// Directory is the node table as seen from inside a transaction.
type Directory interface {
	// Nodes returns every stored node ordered by id.
	Nodes(ctx context.Context) ([]models.Node, error)
	InsertNode(ctx context.Context, n models.Node) error
	UpdateNode(ctx context.Context, n models.Node) error
	DeleteNode(ctx context.Context, id string) error
}

// WithinTx runs fn in one transaction. It commits when fn returns nil and
// rolls back on error or panic, so either all directory changes land or
// none do.
func (s *SQLStore) WithinTx(ctx context.Context, fn func(Directory) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Ctx(ctx).Warn().Err(rbErr).Msg("Failed to roll back transaction")
			}
		}
	}()

	if err = fn(&txDirectory{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type txDirectory struct {
	tx *sql.Tx
}

func (d *txDirectory) Nodes(ctx context.Context) ([]models.Node, error) {
	start := time.Now()
	rows, err := d.tx.QueryContext(ctx, `SELECT id, name, online FROM nodes ORDER BY id`)
	metrics.RecordDBQuery("select", "nodes", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

func (d *txDirectory) InsertNode(ctx context.Context, n models.Node) error {
	start := time.Now()
	_, err := d.tx.ExecContext(ctx, `INSERT INTO nodes (id, name, online) VALUES (?, ?, ?)`, n.ID, n.Name, n.Online)
	metrics.RecordDBQuery("insert", "nodes", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert node %s: %w", n.ID, err)
	}
	return nil
}

func (d *txDirectory) UpdateNode(ctx context.Context, n models.Node) error {
	start := time.Now()
	_, err := d.tx.ExecContext(ctx, `UPDATE nodes SET name = ?, online = ? WHERE id = ?`, n.Name, n.Online, n.ID)
	metrics.RecordDBQuery("update", "nodes", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to update node %s: %w", n.ID, err)
	}
	return nil
}

func (d *txDirectory) DeleteNode(ctx context.Context, id string) error {
	start := time.Now()
	_, err := d.tx.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id)
	metrics.RecordDBQuery("delete", "nodes", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to delete node %s: %w", id, err)
	}
	return nil
}
