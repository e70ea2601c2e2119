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

	"github.com/tomtom215/nodewatch/internal/metrics"
	"github.com/tomtom215/nodewatch/internal/models"
)

// AddSubscription inserts (nodeID, email). It returns false without error
// when the pair already exists.
func (s *SQLStore) AddSubscription(ctx context.Context, nodeID, email string) (bool, error) {
	start := time.Now()
	res, err := s.db.ExecContext(ctx, s.dialect.insertMonitor, nodeID, email)
	metrics.RecordDBQuery("insert", "monitors", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("failed to insert subscription: %w", err)
	}
	return affected(res)
}

// RemoveSubscription deletes (nodeID, email). It returns true iff a row was
// deleted.
func (s *SQLStore) RemoveSubscription(ctx context.Context, nodeID, email string) (bool, error) {
	start := time.Now()
	res, err := s.db.ExecContext(ctx, `DELETE FROM monitors WHERE id = ? AND email = ?`, nodeID, email)
	metrics.RecordDBQuery("delete", "monitors", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("failed to delete subscription: %w", err)
	}
	return affected(res)
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// SubscribersOf returns all addresses subscribed to nodeID, sorted.
func (s *SQLStore) SubscribersOf(ctx context.Context, nodeID string) ([]string, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `SELECT email FROM monitors WHERE id = ? ORDER BY email`, nodeID)
	metrics.RecordDBQuery("select", "monitors", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscribers: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscribers: %w", err)
	}
	return emails, nil
}

// WatchedNodes lists the subscriptions of email, ordered by node id.
// Subscriptions to nodes that have since vanished are included with a nil
// Node so they can still be removed.
func (s *SQLStore) WatchedNodes(ctx context.Context, email string) ([]models.WatchedNode, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, n.name, n.online
		FROM monitors m
		LEFT JOIN nodes n ON n.id = m.id
		WHERE m.email = ?
		ORDER BY m.id
	`, email)
	metrics.RecordDBQuery("select", "monitors", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query watched nodes: %w", err)
	}
	defer rows.Close()

	var watched []models.WatchedNode
	for rows.Next() {
		var (
			id     string
			name   sql.NullString
			online sql.NullBool
		)
		if err := rows.Scan(&id, &name, &online); err != nil {
			return nil, fmt.Errorf("failed to scan watched node: %w", err)
		}
		w := models.WatchedNode{NodeID: id}
		if name.Valid {
			w.Node = &models.Node{ID: id, Name: name.String, Online: online.Bool}
		}
		watched = append(watched, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watched nodes: %w", err)
	}
	return watched, nil
}
