// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/nodewatch/internal/logging"
	"github.com/tomtom215/nodewatch/internal/metrics"
	"github.com/tomtom215/nodewatch/internal/models"
	"github.com/tomtom215/nodewatch/internal/store"
)

// Outcome classifies a completed run.
type Outcome int

const (
	// AllOk means the directory was reconciled against the feed.
	AllOk Outcome = iota
	// NotEnoughOnline means the feed reported fewer online nodes than the
	// configured minimum and the directory was left untouched.
	NotEnoughOnline
)

// String returns the metric label for the outcome.
func (o Outcome) String() string {
	if o == NotEnoughOnline {
		return "not_enough_online"
	}
	return "all_ok"
}

// MarshalText lets the outcome appear by name in JSON.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UpdateResult is the result of one reconciliation run.
type UpdateResult struct {
	Outcome     Outcome `json:"outcome"`
	OnlineCount int     `json:"online_count"`
	FeedNodes   int     `json:"feed_nodes"`

	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Deleted  int `json:"deleted"`

	Changes []models.NodeChange `json:"changes"`

	// NotificationError is set when some emails could not be sent. The
	// directory changes are committed regardless.
	NotificationError string `json:"notification_error,omitempty"`
}

// DirectoryStore runs a function against the node directory inside one
// transaction.
type DirectoryStore interface {
	WithinTx(ctx context.Context, fn func(store.Directory) error) error
}

// FeedSource returns the raw feed document.
type FeedSource interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Notifier receives the change events of a committed run.
type Notifier interface {
	DispatchAll(ctx context.Context, changes []models.NodeChange) error
}

// Reconciler brings the local directory in line with the node feed and
// notifies subscribers of online state flips.
type Reconciler struct {
	feed      FeedSource
	store     DirectoryStore
	notifier  Notifier
	minOnline int
}

// NewReconciler creates a reconciler. notifier may be nil, in which case
// change events are only returned.
func NewReconciler(feed FeedSource, st DirectoryStore, notifier Notifier, minOnline int) *Reconciler {
	return &Reconciler{
		feed:      feed,
		store:     st,
		notifier:  notifier,
		minOnline: minOnline,
	}
}

// Reconcile performs one run: fetch, parse, guard, diff in a transaction,
// commit, then notify. Fetch, parse and storage errors abort the run with
// the directory unchanged. Notification errors are reported in the result.
func (r *Reconciler) Reconcile(ctx context.Context) (*UpdateResult, error) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	log := logging.Ctx(ctx)
	start := time.Now()

	result, err := r.reconcile(ctx)
	if err != nil {
		metrics.RecordReconcile("error", time.Since(start), 0, 0)
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("Reconciliation failed")
		return nil, err
	}

	online, offline := 0, 0
	for _, c := range result.Changes {
		if c.Node.Online {
			online++
		} else {
			offline++
		}
	}
	metrics.RecordReconcile(result.Outcome.String(), time.Since(start), online, offline)

	if result.Outcome == NotEnoughOnline {
		log.Warn().
			Int("online", result.OnlineCount).
			Int("min_online", r.minOnline).
			Msg("Too few nodes online in feed, directory left unchanged")
		return result, nil
	}

	log.Info().
		Int("feed_nodes", result.FeedNodes).
		Int("online", result.OnlineCount).
		Int("inserted", result.Inserted).
		Int("updated", result.Updated).
		Int("deleted", result.Deleted).
		Int("went_online", online).
		Int("went_offline", offline).
		Dur("duration", time.Since(start)).
		Msg("Reconciliation complete")

	if r.notifier != nil && len(result.Changes) > 0 {
		if err := r.notifier.DispatchAll(ctx, result.Changes); err != nil {
			result.NotificationError = err.Error()
		}
	}
	return result, nil
}

func (r *Reconciler) reconcile(ctx context.Context) (*UpdateResult, error) {
	data, err := r.feed.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch node feed: %w", err)
	}

	snap, err := ParseFeed(data)
	if err != nil {
		return nil, err
	}
	if snap.Dropped > 0 {
		logging.Ctx(ctx).Debug().Int("dropped", snap.Dropped).Msg("Skipped feed entries without id or hostname")
	}

	online := snap.OnlineCount()
	metrics.UpdateNodeGauges(len(snap.Nodes), online)

	result := &UpdateResult{
		OnlineCount: online,
		FeedNodes:   len(snap.Nodes),
		Changes:     []models.NodeChange{},
	}
	if online < r.minOnline {
		result.Outcome = NotEnoughOnline
		return result, nil
	}

	err = r.store.WithinTx(ctx, func(dir store.Directory) error {
		return applyDiff(ctx, dir, snap.Nodes, result)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update node directory: %w", err)
	}
	result.Outcome = AllOk
	return result, nil
}

// applyDiff writes the difference between the stored directory and remote
// into dir and appends one change per online flip to result. remote is
// consumed.
func applyDiff(ctx context.Context, dir store.Directory, remote map[string]NodeState, result *UpdateResult) error {
	stored, err := dir.Nodes(ctx)
	if err != nil {
		return err
	}

	for _, old := range stored {
		cur, seen := remote[old.ID]
		if !seen {
			if err := dir.DeleteNode(ctx, old.ID); err != nil {
				return err
			}
			result.Deleted++
			if old.Online {
				gone := old
				gone.Online = false
				result.Changes = append(result.Changes, models.NodeChange{Node: gone})
			}
			continue
		}
		delete(remote, old.ID)

		updated := models.Node{ID: old.ID, Name: cur.Name, Online: cur.Online}
		if updated == old {
			continue
		}
		if err := dir.UpdateNode(ctx, updated); err != nil {
			return err
		}
		result.Updated++
		if updated.Online != old.Online {
			result.Changes = append(result.Changes, models.NodeChange{Node: updated})
		}
	}

	ids := make([]string, 0, len(remote))
	for id := range remote {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		cur := remote[id]
		n := models.Node{ID: id, Name: cur.Name, Online: cur.Online}
		if err := dir.InsertNode(ctx, n); err != nil {
			return err
		}
		result.Inserted++
		if n.Online {
			result.Changes = append(result.Changes, models.NodeChange{Node: n})
		}
	}
	return nil
}
