// Package security provides SSRF protection primitives: classification of
// private/reserved IP addresses and URL safety validation with and without
// DNS resolution.
package security

import (
	"net"
	"strconv"
	"strings"
)

// privateIPv4Blocks lists the IPv4 ranges that must never be fetched:
// RFC1918 private space, loopback, link-local, the current-network block,
// carrier-grade NAT and the benchmarking range.
var privateIPv4Blocks = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"0.0.0.0/8",
	"100.64.0.0/10",
	"198.18.0.0/15",
)

// privateIPv6Blocks lists the blocked IPv6 ranges: unique-local and
// link-local. Unspecified, loopback and IPv4-mapped addresses are handled
// separately in IsPrivateIP.
var privateIPv6Blocks = mustParseCIDRs(
	"fc00::/7",
	"fe80::/10",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic("security: invalid CIDR " + cidr)
		}
		nets = append(nets, network)
	}
	return nets
}

// IsPrivateIP reports whether a parsed IP address falls into a
// private/reserved/loopback/link-local range, for either address family.
// IPv4-mapped IPv6 addresses are classified by their embedded IPv4 address.
func IsPrivateIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	if v4 := ip.To4(); v4 != nil {
		for _, block := range privateIPv4Blocks {
			if block.Contains(v4) {
				return true
			}
		}
		return false
	}
	if ip.IsUnspecified() || ip.IsLoopback() {
		return true
	}
	for _, block := range privateIPv6Blocks {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}

// IsPrivateIPv4 reports whether an IPv4 address literal is in a
// private/reserved range. Malformed input returns false; callers that need
// to distinguish "invalid" from "public" must validate syntax first.
func IsPrivateIPv4(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil || ip.To4() == nil {
		return false
	}
	return IsPrivateIP(ip)
}

// IsPrivateIPv6 reports whether an IPv6 address literal is in a blocked
// range: unspecified, loopback, unique-local, link-local, or an IPv4-mapped
// address whose embedded IPv4 address is private. Malformed input returns
// false.
func IsPrivateIPv6(addr string) bool {
	if !strings.Contains(addr, ":") {
		return false
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	return IsPrivateIP(ip)
}

// ParseIPv4Literal parses a hostname as an IPv4 literal using inet_aton
// semantics: one to four dot-separated groups, each in decimal, octal
// (leading zero) or hexadecimal (0x prefix), with the final group filling the
// remaining bytes. This normalizes obfuscated encodings such as "127.1",
// "0177.0.0.1", "0x7f000001" and "2130706433" before classification, so a
// blocklist match cannot be bypassed with a non-dotted-decimal form.
// The second return value is false when the hostname is not an IPv4 literal.
func ParseIPv4Literal(host string) (net.IP, bool) {
	if host == "" {
		return nil, false
	}
	parts := strings.Split(host, ".")
	if len(parts) > 4 {
		return nil, false
	}
	nums := make([]uint64, len(parts))
	for i, part := range parts {
		n, ok := parseIPv4Group(part)
		if !ok {
			return nil, false
		}
		nums[i] = n
	}

	// The last group covers all bytes not claimed by the leading groups.
	last := nums[len(nums)-1]
	if last >= uint64(1)<<uint(8*(5-len(nums))) {
		return nil, false
	}
	v := uint32(last)
	for i := 0; i < len(nums)-1; i++ {
		if nums[i] > 255 {
			return nil, false
		}
		v |= uint32(nums[i]) << uint(8*(3-i))
	}
	return net.IPv4(byte(v>>24), byte(v>>16), byte(v>>8), byte(v)), true
}

func parseIPv4Group(s string) (uint64, bool) {
	var n uint64
	var err error
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		n, err = strconv.ParseUint(s[2:], 16, 64)
	case len(s) > 1 && s[0] == '0':
		n, err = strconv.ParseUint(s[1:], 8, 64)
	default:
		n, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil {
		return 0, false
	}
	return n, true
}
