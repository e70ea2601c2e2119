// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package validation

import (
	"net/url"
	"strings"

	"github.com/tomtom215/nodewatch/internal/action"
)

// PrepareActionRequest is the form posted to /prepare_action.
type PrepareActionRequest struct {
	Node  string `form:"node" validate:"required,max=128,nodeid"`
	Email string `form:"email" validate:"required,max=254,nodeemail"`
	Op    string `form:"op" validate:"required,actionop"`
}

// PrepareActionFromForm reads the request fields from a parsed form.
// Values are trimmed; the email is kept as typed apart from that.
func PrepareActionFromForm(form url.Values) PrepareActionRequest {
	return PrepareActionRequest{
		Node:  strings.TrimSpace(form.Get("node")),
		Email: strings.TrimSpace(form.Get("email")),
		Op:    strings.TrimSpace(form.Get("op")),
	}
}

// Action converts a validated request. Call only after ValidateStruct
// returned nil.
func (r PrepareActionRequest) Action() action.Action {
	op, _ := action.ParseOperation(r.Op) //nolint:errcheck // checked by actionop
	return action.Action{NodeID: r.Node, Email: r.Email, Op: op}
}

// ListRequest is the query of /list.
type ListRequest struct {
	Email string `form:"email" validate:"required,max=254,nodeemail"`
}

// RunActionRequest is the query of /run_action.
type RunActionRequest struct {
	SignedAction string `form:"signed_action" validate:"required,max=4096"`
}
