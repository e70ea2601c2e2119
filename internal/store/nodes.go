// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/nodewatch/internal/metrics"
	"github.com/tomtom215/nodewatch/internal/models"
)

// GetNode returns one node or ErrNodeNotFound.
func (s *SQLStore) GetNode(ctx context.Context, id string) (*models.Node, error) {
	start := time.Now()
	var n models.Node
	err := s.db.QueryRowContext(ctx, `SELECT id, name, online FROM nodes WHERE id = ?`, id).
		Scan(&n.ID, &n.Name, &n.Online)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordDBQuery("select", "nodes", time.Since(start), nil)
		return nil, ErrNodeNotFound
	}
	metrics.RecordDBQuery("select", "nodes", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to get node %s: %w", id, err)
	}
	return &n, nil
}

// ListNodes returns all nodes ordered by name for the subscription form.
func (s *SQLStore) ListNodes(ctx context.Context) ([]models.Node, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, online FROM nodes ORDER BY name, id`)
	metrics.RecordDBQuery("select", "nodes", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// Stats counts nodes, online nodes and subscriptions.
func (s *SQLStore) Stats(ctx context.Context) (*models.DirectoryStats, error) {
	start := time.Now()
	var st models.DirectoryStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM nodes),
			(SELECT COUNT(*) FROM nodes WHERE online),
			(SELECT COUNT(*) FROM monitors)
	`).Scan(&st.Nodes, &st.OnlineNodes, &st.Subscriptions)
	metrics.RecordDBQuery("select", "nodes", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &st, nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanNodes(rows rowScanner) ([]models.Node, error) {
	var nodes []models.Node
	for rows.Next() {
		var n models.Node
		if err := rows.Scan(&n.ID, &n.Name, &n.Online); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}
	return nodes, nil
}
