// Package fetcher provides SSRF-hardened HTTP fetching: every request and
// every redirect hop is validated against the security package before any
// network contact with the target.
package fetcher

import "errors"

// Sentinel errors for fetch operations.
var (
	// ErrSecurityViolation indicates that a URL or a redirect target failed
	// safety validation. The operation is never retried.
	ErrSecurityViolation = errors.New("security violation: unsafe URL blocked")

	// ErrTooManyRedirects indicates that the redirect hop budget was
	// exhausted without reaching a final response.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooLarge indicates that a response body exceeded the configured
	// size limit.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrUnexpectedStatus indicates a non-success HTTP status on a fetch
	// that expected a 2xx response.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrNoContent indicates that content extraction produced no readable
	// text.
	ErrNoContent = errors.New("no readable content")
)
