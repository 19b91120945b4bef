// Package tenant maps ambient request context (hostname) to a durable store
// identifier.
package tenant

import (
	"net"
	"regexp"
	"strings"
)

var ipv4Re = regexp.MustCompile(`^\d+\.\d+\.\d+\.\d+$`)

// SubdomainFromHost derives the tenant label from a request host. Pure and
// synchronous. localRoot is the local-development root token ("localhost").
//
// Rules, in order: a bare IPv4 address has no tenant; the bare localRoot has
// no tenant; "<label>.<localRoot>" yields the label; otherwise the host needs
// at least three dot segments ("sub.example.com") and the first one is the
// label. A bare root domain ("example.com") has no tenant. Ports are ignored.
func SubdomainFromHost(host, localRoot string) string {
	h := strings.ToLower(strings.TrimSpace(host))
	if h == "" {
		return ""
	}
	if only, _, err := net.SplitHostPort(h); err == nil {
		h = only
	}
	if ipv4Re.MatchString(h) {
		return ""
	}
	if h == localRoot {
		return ""
	}
	if suffix := "." + localRoot; strings.HasSuffix(h, suffix) {
		label := strings.TrimSuffix(h, suffix)
		label, _, _ = strings.Cut(label, ":")
		return label
	}
	h, _, _ = strings.Cut(h, ":")
	parts := strings.Split(h, ".")
	if len(parts) < 3 {
		return "" // bare root domain, no subdomain
	}
	return parts[0]
}
