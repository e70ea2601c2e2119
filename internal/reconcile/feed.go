// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package reconcile

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// SupportedFeedVersion is the only nodes.json schema version understood.
const SupportedFeedVersion = 2

// ErrMalformedFeed wraps structural problems in the feed document.
var ErrMalformedFeed = errors.New("malformed node feed")

// UnsupportedVersionError is returned for a feed whose version is not
// SupportedFeedVersion. The document is never reinterpreted.
type UnsupportedVersionError struct {
	Version int
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("got unsupported feed version %d (want %d)", e.Version, SupportedFeedVersion)
}

// feedDocument mirrors the meshviewer nodes.json (version 2) layout. Only the
// fields used for reconciliation are decoded; the rest is ignored.
type feedDocument struct {
	Version   *int       `json:"version"`
	Nodes     []feedNode `json:"nodes"`
	Timestamp string     `json:"timestamp"`
}

type feedNode struct {
	NodeInfo *feedNodeInfo `json:"nodeinfo"`
	Flags    *feedFlags    `json:"flags"`
}

type feedNodeInfo struct {
	NodeID   *string `json:"node_id"`
	Hostname *string `json:"hostname"`
}

type feedFlags struct {
	Online *bool `json:"online"`
}

// NodeState is the per-node data taken from the feed.
type NodeState struct {
	Name   string
	Online bool
}

// Snapshot is a parsed feed reduced to actionable nodes.
type Snapshot struct {
	// Nodes maps node id to state. Entries without id or hostname are
	// dropped; a later duplicate id replaces an earlier one.
	Nodes map[string]NodeState

	// Dropped counts entries skipped for missing id or hostname.
	Dropped int

	// Timestamp is the feed's own generation time, verbatim.
	Timestamp string
}

// OnlineCount returns the number of online nodes in the snapshot.
func (s *Snapshot) OnlineCount() int {
	n := 0
	for _, st := range s.Nodes {
		if st.Online {
			n++
		}
	}
	return n
}

// ParseFeed decodes a nodes.json document. The version is checked before
// the node list is interpreted.
func ParseFeed(data []byte) (*Snapshot, error) {
	var head struct {
		Version *int `json:"version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}
	if head.Version == nil {
		return nil, fmt.Errorf("%w: missing version", ErrMalformedFeed)
	}
	if *head.Version != SupportedFeedVersion {
		return nil, &UnsupportedVersionError{Version: *head.Version}
	}

	var doc feedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}
	if doc.Nodes == nil {
		return nil, fmt.Errorf("%w: missing nodes list", ErrMalformedFeed)
	}

	snap := &Snapshot{
		Nodes:     make(map[string]NodeState, len(doc.Nodes)),
		Timestamp: doc.Timestamp,
	}
	for i, n := range doc.Nodes {
		if n.NodeInfo == nil {
			return nil, fmt.Errorf("%w: node %d has no nodeinfo", ErrMalformedFeed, i)
		}
		if n.Flags == nil || n.Flags.Online == nil {
			return nil, fmt.Errorf("%w: node %d has no online flag", ErrMalformedFeed, i)
		}
		if n.NodeInfo.NodeID == nil || n.NodeInfo.Hostname == nil {
			snap.Dropped++
			continue
		}
		snap.Nodes[*n.NodeInfo.NodeID] = NodeState{
			Name:   *n.NodeInfo.Hostname,
			Online: *n.Flags.Online,
		}
	}
	return snap, nil
}
