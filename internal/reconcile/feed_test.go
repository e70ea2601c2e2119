// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package reconcile

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

type feedEntry struct {
	id     string
	name   string
	online bool
}

// buildFeed renders a version 2 nodes.json with the usual extra fields.
func buildFeed(version int, entries ...feedEntry) []byte {
	nodes := make([]string, 0, len(entries))
	for _, e := range entries {
		nodes = append(nodes, fmt.Sprintf(`{
			"firstseen": "2018-01-01T00:00:00+0000",
			"lastseen": "2018-06-01T12:00:00+0000",
			"flags": {"online": %t, "gateway": false},
			"statistics": {"clients": 3, "memory_usage": 0.5},
			"nodeinfo": {"node_id": %q, "hostname": %q, "network": {"mac": "aa:bb"}}
		}`, e.online, e.id, e.name))
	}
	return []byte(fmt.Sprintf(`{"version": %d, "timestamp": "2018-06-01T12:00:00+0000", "nodes": [%s]}`,
		version, strings.Join(nodes, ",")))
}

func TestParseFeed(t *testing.T) {
	t.Parallel()

	snap, err := ParseFeed(buildFeed(2,
		feedEntry{"a", "Alpha", true},
		feedEntry{"b", "Bravo", false},
		feedEntry{"c", "Charlie", true},
	))
	if err != nil {
		t.Fatalf("ParseFeed() error = %v", err)
	}
	if len(snap.Nodes) != 3 {
		t.Fatalf("len(Nodes) = %d, want 3", len(snap.Nodes))
	}
	if got := snap.Nodes["b"]; got.Name != "Bravo" || got.Online {
		t.Errorf("Nodes[b] = %+v", got)
	}
	if snap.OnlineCount() != 2 {
		t.Errorf("OnlineCount() = %d, want 2", snap.OnlineCount())
	}
	if snap.Timestamp != "2018-06-01T12:00:00+0000" {
		t.Errorf("Timestamp = %q", snap.Timestamp)
	}
}

func TestParseFeedDropsIncompleteEntries(t *testing.T) {
	t.Parallel()

	data := []byte(`{"version": 2, "nodes": [
		{"nodeinfo": {"node_id": "a", "hostname": "Alpha"}, "flags": {"online": true}},
		{"nodeinfo": {"hostname": "no id"}, "flags": {"online": true}},
		{"nodeinfo": {"node_id": "noname"}, "flags": {"online": true}},
		{"nodeinfo": {"node_id": null, "hostname": "null id"}, "flags": {"online": false}}
	]}`)

	snap, err := ParseFeed(data)
	if err != nil {
		t.Fatalf("ParseFeed() error = %v", err)
	}
	if len(snap.Nodes) != 1 || snap.Dropped != 3 {
		t.Errorf("Nodes = %v, Dropped = %d; want 1 node, 3 dropped", snap.Nodes, snap.Dropped)
	}
}

func TestParseFeedUnsupportedVersion(t *testing.T) {
	t.Parallel()

	for _, v := range []int{0, 1, 3} {
		_, err := ParseFeed(buildFeed(v, feedEntry{"a", "Alpha", true}))
		var verr *UnsupportedVersionError
		if !errors.As(err, &verr) {
			t.Errorf("version %d: error = %v, want UnsupportedVersionError", v, err)
			continue
		}
		if verr.Version != v {
			t.Errorf("UnsupportedVersionError.Version = %d, want %d", verr.Version, v)
		}
	}
}

// A version 1 document has a different shape; it must be rejected by version
// before the node list is looked at.
func TestParseFeedVersionCheckedFirst(t *testing.T) {
	t.Parallel()

	_, err := ParseFeed([]byte(`{"version": 1, "nodes": {"a": {"nodeinfo": {}}}}`))
	var verr *UnsupportedVersionError
	if !errors.As(err, &verr) {
		t.Errorf("error = %v, want UnsupportedVersionError", err)
	}
}

func TestParseFeedMalformed(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"not json":        `<html>502 Bad Gateway</html>`,
		"missing version": `{"nodes": []}`,
		"missing nodes":   `{"version": 2}`,
		"no nodeinfo":     `{"version": 2, "nodes": [{"flags": {"online": true}}]}`,
		"no flags":        `{"version": 2, "nodes": [{"nodeinfo": {"node_id": "a", "hostname": "A"}}]}`,
		"no online flag":  `{"version": 2, "nodes": [{"nodeinfo": {"node_id": "a", "hostname": "A"}, "flags": {}}]}`,
		"wrong type":      `{"version": 2, "nodes": [{"nodeinfo": {"node_id": 5, "hostname": "A"}, "flags": {"online": true}}]}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseFeed([]byte(doc)); !errors.Is(err, ErrMalformedFeed) {
				t.Errorf("ParseFeed() error = %v, want ErrMalformedFeed", err)
			}
		})
	}
}
