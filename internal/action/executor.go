// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package action

import (
	"context"
	"fmt"

	"github.com/tomtom215/nodewatch/internal/logging"
	"github.com/tomtom215/nodewatch/internal/metrics"
)

// SubscriptionStore is the persistence the executor needs. Each method must
// be a single atomic statement and report whether a row was affected.
type SubscriptionStore interface {
	AddSubscription(ctx context.Context, nodeID, email string) (bool, error)
	RemoveSubscription(ctx context.Context, nodeID, email string) (bool, error)
}

// Executor applies verified actions.
//
// Add does not check that the node exists; the prepare step rejects unknown
// nodes before a token is ever issued.
type Executor struct {
	store SubscriptionStore
}

// NewExecutor creates an executor backed by store.
func NewExecutor(store SubscriptionStore) *Executor {
	return &Executor{store: store}
}

// Run applies a. It returns true when the subscription set changed and false
// for an idempotent no-op (duplicate Add, Remove of a missing pair).
func (e *Executor) Run(ctx context.Context, a Action) (bool, error) {
	var (
		changed bool
		err     error
	)
	switch a.Op {
	case OpAdd:
		changed, err = e.store.AddSubscription(ctx, a.NodeID, a.Email)
	case OpRemove:
		changed, err = e.store.RemoveSubscription(ctx, a.NodeID, a.Email)
	default:
		return false, fmt.Errorf("%w: %d", ErrUnknownOperation, uint8(a.Op))
	}
	if err != nil {
		metrics.RecordAction(a.Op.String(), "error")
		return false, fmt.Errorf("failed to %s subscription: %w", a.Op, err)
	}

	result := "noop"
	if changed {
		result = "changed"
	}
	metrics.RecordAction(a.Op.String(), result)

	logging.Ctx(ctx).Info().
		Str("op", a.Op.String()).
		Str("node_id", a.NodeID).
		Str("email", logging.MaskEmail(a.Email)).
		Bool("changed", changed).
		Msg("Applied subscription action")
	return changed, nil
}
