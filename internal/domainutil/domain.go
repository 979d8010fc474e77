// Package domainutil computes registrable domains (eTLD+1) for the
// skipExternal same-site checks used by the Link Finder and the Frame
// Registry (§6 glossary "Registrable domain").
package domainutil

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Registrable returns the eTLD+1 of host, or "" if host is an IP
// address or localhost (per §3 CrawlSession.domain: "registrable
// domain or null for localhost/IP").
func Registrable(host string) string {
	host = strings.TrimSuffix(host, ".")
	if host == "" || host == "localhost" {
		return ""
	}
	if net.ParseIP(host) != nil {
		return ""
	}
	reg, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return ""
	}
	return reg
}

// SameSite reports whether two URLs share a registrable domain. Two
// localhost/IP hosts are only considered same-site if their hosts are
// byte-identical, since Registrable returns "" for both.
func SameSite(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	ra, rb := Registrable(ua.Hostname()), Registrable(ub.Hostname())
	if ra == "" && rb == "" {
		return strings.EqualFold(ua.Hostname(), ub.Hostname())
	}
	return ra != "" && ra == rb
}
