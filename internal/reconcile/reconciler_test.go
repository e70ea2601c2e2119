// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package reconcile

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/nodewatch/internal/models"
	"github.com/tomtom215/nodewatch/internal/store"
)

type staticFeed struct {
	mu   sync.Mutex
	data []byte
	err  error
}

func (f *staticFeed) set(data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = data
}

func (f *staticFeed) Fetch(context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data, f.err
}

type recordingNotifier struct {
	mu      sync.Mutex
	batches [][]models.NodeChange
	err     error
}

func (n *recordingNotifier) DispatchAll(_ context.Context, changes []models.NodeChange) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.batches = append(n.batches, changes)
	return n.err
}

func setupTestStore(t *testing.T) *store.SQLStore {
	t.Helper()
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		t.Fatalf("failed to open duckdb: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := store.New(db, store.DriverDuckDB)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	if err := s.InitSchema(context.Background()); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}
	return s
}

func storedNodes(t *testing.T, s *store.SQLStore) map[string]models.Node {
	t.Helper()
	list, err := s.ListNodes(context.Background())
	if err != nil {
		t.Fatalf("ListNodes() error = %v", err)
	}
	out := make(map[string]models.Node, len(list))
	for _, n := range list {
		out[n.ID] = n
	}
	return out
}

func changeMap(changes []models.NodeChange) map[string]bool {
	out := make(map[string]bool, len(changes))
	for _, c := range changes {
		out[c.Node.ID] = c.Node.Online
	}
	return out
}

// Store {A online, B offline}, feed {A offline, C online}.
func TestReconcileDiffScenario(t *testing.T) {
	s := setupTestStore(t)
	feed := &staticFeed{data: buildFeed(2, feedEntry{"A", "Alpha", true}, feedEntry{"B", "Bravo", false})}
	notifier := &recordingNotifier{}
	r := NewReconciler(feed, s, notifier, 0)
	ctx := context.Background()

	if _, err := r.Reconcile(ctx); err != nil {
		t.Fatalf("seed Reconcile() error = %v", err)
	}

	feed.set(buildFeed(2, feedEntry{"A", "Alpha", false}, feedEntry{"C", "Charlie", true}))
	result, err := r.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if result.Outcome != AllOk {
		t.Fatalf("Outcome = %v, want AllOk", result.Outcome)
	}

	got := changeMap(result.Changes)
	want := map[string]bool{"A": false, "C": true}
	if len(got) != len(want) {
		t.Fatalf("changes = %v, want %v", got, want)
	}
	for id, online := range want {
		if v, ok := got[id]; !ok || v != online {
			t.Errorf("change %s = (%v, %v), want %v", id, v, ok, online)
		}
	}

	nodes := storedNodes(t, s)
	if len(nodes) != 2 {
		t.Fatalf("stored nodes = %v, want A and C", nodes)
	}
	if nodes["A"].Online || !nodes["C"].Online {
		t.Errorf("stored nodes = %v", nodes)
	}
	if _, ok := nodes["B"]; ok {
		t.Error("B should have been deleted")
	}
	if result.Inserted != 1 || result.Updated != 1 || result.Deleted != 1 {
		t.Errorf("counts = ins %d upd %d del %d, want 1/1/1", result.Inserted, result.Updated, result.Deleted)
	}
}

// B is online when it disappears, so it is reported as going offline.
func TestReconcileVanishedOnlineNode(t *testing.T) {
	s := setupTestStore(t)
	feed := &staticFeed{data: buildFeed(2, feedEntry{"B", "Bravo", true})}
	r := NewReconciler(feed, s, nil, 0)
	ctx := context.Background()

	first, err := r.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if got := changeMap(first.Changes); len(got) != 1 || !got["B"] {
		t.Errorf("first run changes = %v, want B online", got)
	}

	feed.set(buildFeed(2))
	second, err := r.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(second.Changes) != 1 {
		t.Fatalf("changes = %+v, want one", second.Changes)
	}
	c := second.Changes[0].Node
	if c.ID != "B" || c.Online || c.Name != "Bravo" {
		t.Errorf("change = %+v, want Bravo offline", c)
	}
}

func TestReconcileConvergence(t *testing.T) {
	s := setupTestStore(t)
	feed := &staticFeed{data: buildFeed(2,
		feedEntry{"1", "one", true},
		feedEntry{"2", "two", false},
		feedEntry{"3", "three", true},
	)}
	r := NewReconciler(feed, s, nil, 0)
	ctx := context.Background()

	if _, err := r.Reconcile(ctx); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	second, err := r.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(second.Changes) != 0 || second.Inserted+second.Updated+second.Deleted != 0 {
		t.Errorf("second run = %+v, want no changes", second)
	}

	nodes := storedNodes(t, s)
	want := map[string]models.Node{
		"1": {ID: "1", Name: "one", Online: true},
		"2": {ID: "2", Name: "two", Online: false},
		"3": {ID: "3", Name: "three", Online: true},
	}
	if len(nodes) != len(want) {
		t.Fatalf("stored = %v, want %v", nodes, want)
	}
	for id, n := range want {
		if nodes[id] != n {
			t.Errorf("stored[%s] = %+v, want %+v", id, nodes[id], n)
		}
	}
}

func TestReconcileNameChangeIsSilent(t *testing.T) {
	s := setupTestStore(t)
	feed := &staticFeed{data: buildFeed(2, feedEntry{"n", "old-name", true})}
	notifier := &recordingNotifier{}
	r := NewReconciler(feed, s, notifier, 0)
	ctx := context.Background()

	if _, err := r.Reconcile(ctx); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	feed.set(buildFeed(2, feedEntry{"n", "new-name", true}))
	result, err := r.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(result.Changes) != 0 || result.Updated != 1 {
		t.Errorf("result = %+v, want one silent update", result)
	}
	if storedNodes(t, s)["n"].Name != "new-name" {
		t.Error("name was not updated")
	}
	if len(notifier.batches) != 1 {
		t.Errorf("notifier called %d times, want only for the first run", len(notifier.batches))
	}
}

func TestReconcileNotEnoughOnline(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	healthy := make([]feedEntry, 0, 50)
	dead := make([]feedEntry, 0, 50)
	for i := 0; i < 50; i++ {
		id := string(rune('a'+i%26)) + string(rune('a'+i/26))
		healthy = append(healthy, feedEntry{id, "node-" + id, true})
		dead = append(dead, feedEntry{id, "node-" + id, false})
	}

	feed := &staticFeed{data: buildFeed(2, healthy...)}
	notifier := &recordingNotifier{}
	r := NewReconciler(feed, s, notifier, 10)
	if _, err := r.Reconcile(ctx); err != nil {
		t.Fatalf("seed Reconcile() error = %v", err)
	}
	before := storedNodes(t, s)
	calls := len(notifier.batches)

	feed.set(buildFeed(2, dead...))
	result, err := r.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if result.Outcome != NotEnoughOnline || result.OnlineCount != 0 {
		t.Errorf("result = %+v, want NotEnoughOnline(0)", result)
	}

	after := storedNodes(t, s)
	if len(after) != len(before) {
		t.Fatalf("store changed: %d -> %d nodes", len(before), len(after))
	}
	for id, n := range before {
		if after[id] != n {
			t.Errorf("node %s changed: %+v -> %+v", id, n, after[id])
		}
	}
	if len(notifier.batches) != calls {
		t.Error("notifier called for a guarded run")
	}
}

func TestReconcileFeedErrorsLeaveStoreUntouched(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		err  error
		want func(error) bool
	}{
		{"fetch failure", nil, errors.New("connection refused"), func(err error) bool { return err != nil }},
		{"unsupported version", buildFeed(3), nil, func(err error) bool {
			var v *UnsupportedVersionError
			return errors.As(err, &v)
		}},
		{"bad json", []byte("{"), nil, func(err error) bool { return errors.Is(err, ErrMalformedFeed) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupTestStore(t)
			feed := &staticFeed{data: buildFeed(2, feedEntry{"x", "X", true})}
			r := NewReconciler(feed, s, nil, 0)
			if _, err := r.Reconcile(context.Background()); err != nil {
				t.Fatalf("seed Reconcile() error = %v", err)
			}

			feed.mu.Lock()
			feed.data, feed.err = tt.data, tt.err
			feed.mu.Unlock()

			result, err := r.Reconcile(context.Background())
			if !tt.want(err) || result != nil {
				t.Errorf("Reconcile() = (%+v, %v)", result, err)
			}
			if n := storedNodes(t, s)["x"]; !n.Online {
				t.Errorf("stored x = %+v, want untouched", n)
			}
		})
	}
}

// failingStore hands out a directory whose inserts always fail.
type failingStore struct {
	*store.SQLStore
}

func (f failingStore) WithinTx(ctx context.Context, fn func(store.Directory) error) error {
	return f.SQLStore.WithinTx(ctx, func(d store.Directory) error {
		return fn(failingDirectory{d})
	})
}

type failingDirectory struct {
	store.Directory
}

func (failingDirectory) InsertNode(context.Context, models.Node) error {
	return errors.New("disk full")
}

func TestReconcileRollsBackOnStoreError(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	feed := &staticFeed{data: buildFeed(2, feedEntry{"A", "Alpha", true}, feedEntry{"B", "Bravo", true})}
	if _, err := NewReconciler(feed, s, nil, 0).Reconcile(ctx); err != nil {
		t.Fatalf("seed Reconcile() error = %v", err)
	}

	// Update A, delete B, then fail inserting C.
	feed.set(buildFeed(2, feedEntry{"A", "Alpha", false}, feedEntry{"C", "Charlie", true}))
	notifier := &recordingNotifier{}
	if _, err := NewReconciler(feed, failingStore{s}, notifier, 0).Reconcile(ctx); err == nil {
		t.Fatal("Reconcile() expected error")
	}

	nodes := storedNodes(t, s)
	if len(nodes) != 2 || !nodes["A"].Online || !nodes["B"].Online {
		t.Errorf("store after failed run = %v, want unchanged", nodes)
	}
	if len(notifier.batches) != 0 {
		t.Error("notifier called for a failed run")
	}
}

func TestReconcileNotificationErrorKeepsDirectory(t *testing.T) {
	s := setupTestStore(t)
	feed := &staticFeed{data: buildFeed(2, feedEntry{"A", "Alpha", true})}
	notifier := &recordingNotifier{err: errors.New("smtp down")}

	result, err := NewReconciler(feed, s, notifier, 0).Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if result.NotificationError == "" {
		t.Error("NotificationError not reported")
	}
	if _, ok := storedNodes(t, s)["A"]; !ok {
		t.Error("directory change was lost")
	}
}
