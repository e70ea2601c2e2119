// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package config

import (
	"fmt"
	"net/url"
)

// validateHTTPURL checks for an absolute http(s) URL with a host. Paths and
// queries are allowed (feed URLs usually have both).
func validateHTTPURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	return nil
}

// validateBaseURL additionally rejects query strings and fragments, since
// route paths are appended to it.
func validateBaseURL(rawURL, fieldName string) error {
	if err := validateHTTPURL(rawURL, fieldName); err != nil {
		return err
	}
	parsedURL, _ := url.Parse(rawURL) //nolint:errcheck // parsed above
	if parsedURL.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsedURL.RawQuery)
	}
	if parsedURL.Fragment != "" {
		return fmt.Errorf("%s should not contain a fragment", fieldName)
	}
	return nil
}
