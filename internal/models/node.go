// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

// Package models holds the persistent and wire types shared across packages.
package models

// Node is one mesh node as stored in the local directory.
type Node struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Online bool   `json:"online"`
}

// Subscription (monitor) links an email address to a node. (NodeID, Email)
// is unique.
type Subscription struct {
	NodeID string `json:"node_id"`
	Email  string `json:"email"`
}

// WatchedNode is one row of an address's subscription list. Node is nil when
// the subscribed node no longer exists in the directory.
type WatchedNode struct {
	NodeID string `json:"node_id"`
	Node   *Node  `json:"node,omitempty"`
}

// DisplayName returns the node name, or the id when the node is gone.
func (w WatchedNode) DisplayName() string {
	if w.Node != nil {
		return w.Node.Name
	}
	return w.NodeID
}

// DirectoryStats summarizes the store for status endpoints and gauges.
type DirectoryStats struct {
	Nodes         int `json:"nodes"`
	OnlineNodes   int `json:"online_nodes"`
	Subscriptions int `json:"subscriptions"`
}

// NodeChange is an online state transition found by a reconciliation run.
// Node carries the new state; a vanished node is reported with its last
// known name and Online=false.
type NodeChange struct {
	Node Node `json:"node"`
}
