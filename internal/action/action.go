// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

// Package action implements subscription actions: the signed token that
// authorizes them from an email link and the executor that applies them.
//
// A token is self-verifying. The server keeps no record of issued tokens and
// they never expire; replaying a token is harmless because Add and Remove
// are idempotent.
//
//	act := action.Action{NodeID: "c04a0012ab34", Email: "alice@example.org", Op: action.OpAdd}
//	token, err := action.EncodeToken(action.Sign(act, key))
//	...
//	act, err = action.ParseToken(token, key)
//	changed, err := executor.Run(ctx, act)
package action

import (
	"errors"
	"fmt"
	"strings"
)

// Operation selects what an action does to a subscription.
type Operation uint8

// Wire values are part of the token encoding and must not change.
const (
	OpRemove Operation = 0
	OpAdd    Operation = 1
)

// ErrUnknownOperation is returned by ParseOperation.
var ErrUnknownOperation = errors.New("unknown operation")

// String returns "add" or "remove".
func (o Operation) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpRemove:
		return "remove"
	default:
		return fmt.Sprintf("operation(%d)", uint8(o))
	}
}

// Valid reports whether o is a known operation.
func (o Operation) Valid() bool {
	return o == OpAdd || o == OpRemove
}

// ParseOperation accepts the form values "add", "remove", "1" and "0".
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "add", "1":
		return OpAdd, nil
	case "remove", "0":
		return OpRemove, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, s)
	}
}

// Action is a requested subscribe or unsubscribe. It is never persisted.
// Field order is fixed by the codec tags and StructToArray encoding.
type Action struct {
	NodeID string    `codec:"node"`
	Email  string    `codec:"email"`
	Op     Operation `codec:"op"`
}

// String formats the action for CLI output. It contains the raw address.
func (a Action) String() string {
	return fmt.Sprintf("%s %s for %s", a.Op, a.NodeID, a.Email)
}
