// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package logging

import (
	"fmt"
	"strings"
)

// MaskEmail hides the local part of an address, keeping its first character
// and the domain.
//
//	MaskEmail("alice@example.org") // "a***@example.org"
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	first := []rune(email[:at])[0]
	return SanitizeValue(string(first)) + "***" + SanitizeValue(email[at:])
}

// MaskToken keeps the first and last four characters of a token.
func MaskToken(token string) string {
	if len(token) <= 12 {
		if token == "" {
			return ""
		}
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeValue escapes control characters so user supplied values cannot
// forge log lines.
func SanitizeValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
