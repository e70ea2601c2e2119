// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

// Package validation validates HTML form and query input using
// go-playground/validator v10.
//
// A singleton validator is created once with three custom rules:
//
//   - nodeemail: exactly one '@', non-empty local part, a dot in the domain,
//     no whitespace or control characters
//   - nodeid: non-empty, no whitespace or control characters
//   - actionop: add, remove, 1 or 0 (case-insensitive)
//
// Field names in errors are taken from the `form` struct tag so that
// messages refer to the names users see ("email is required").
//
// Example usage:
//
//	req := validation.PrepareActionFromForm(r.PostForm)
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    // render the prepare_action error page
//	}
//	a := req.Action()
package validation
