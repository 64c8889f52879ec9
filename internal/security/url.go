package security

import (
	"context"
	"net"
	"net/url"
	"strings"
)

// Resolver is the subset of net.Resolver used for URL validation.
// It is an interface so tests can substitute a fake resolver.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// IsSafeURL performs synchronous, DNS-free URL validation.
// It rejects any scheme other than http/https, the literal hostname
// "localhost", IPv6 literal hostnames in blocked ranges, and IPv4 literal
// hostnames (in any encoding) that classify as private.
//
// A verdict is only trustworthy at the instant it is computed; results must
// not be cached across time, or a DNS rebind between check and use would
// defeat the validation.
func IsSafeURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false
	}
	host := u.Hostname()
	if host == "" {
		return false
	}
	if strings.EqualFold(host, "localhost") {
		return false
	}

	// A hostname containing a colon is an IPv6 literal (net/url strips the
	// brackets). Bare, bracket-less IPv6 never survives URL parsing with a
	// usable hostname, so anything colon-shaped that does not parse as an
	// address is rejected outright.
	if strings.Contains(host, ":") {
		ip := net.ParseIP(host)
		if ip == nil {
			return false
		}
		return !IsPrivateIP(ip)
	}

	if ip, ok := ParseIPv4Literal(host); ok {
		return !IsPrivateIP(ip)
	}
	return true
}

// URLValidator validates URLs for SSRF safety, including the DNS-resolving
// variant. The zero value is not usable; construct with NewURLValidator.
type URLValidator struct {
	resolver Resolver
}

// NewURLValidator creates a URLValidator using the given resolver.
// A nil resolver falls back to net.DefaultResolver.
func NewURLValidator(resolver Resolver) *URLValidator {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &URLValidator{resolver: resolver}
}

// IsSafeURL runs the synchronous, DNS-free check. See the package-level
// IsSafeURL.
func (v *URLValidator) IsSafeURL(raw string) bool {
	return IsSafeURL(raw)
}

// IsSafeURLContext validates a URL including DNS resolution. The synchronous
// check runs first so obviously bad URLs are rejected without network cost;
// the hostname is then resolved and every resolved address is re-classified.
// Any private resolution, or a resolution failure, makes the URL unsafe
// (fail closed): an unresolvable host is never assumed harmless.
func (v *URLValidator) IsSafeURLContext(ctx context.Context, raw string) bool {
	if !IsSafeURL(raw) {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	addrs, err := v.resolver.LookupIPAddr(ctx, u.Hostname())
	if err != nil || len(addrs) == 0 {
		return false
	}
	for _, addr := range addrs {
		if IsPrivateIP(addr.IP) {
			return false
		}
	}
	return true
}
