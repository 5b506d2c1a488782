// Package identifier extracts a candidate tenant slug from an inbound request.
//
// Strategies are tried in fixed precedence: subdomain, then the X-Tenant-ID
// header, then the path segment following "tenants". The first strategy that
// yields a syntactically valid slug wins. Finding nothing is not an error; the
// caller decides whether a tenant is required for the route.
package identifier

import (
	"net"
	"net/http"
	"strings"

	id "smartparking/pkg/domain"
	"smartparking/pkg/validation"
)

// HeaderName is the explicit tenant header.
const HeaderName = "X-Tenant-ID"

// Strategy names the source a candidate came from.
type Strategy string

const (
	StrategySubdomain Strategy = "subdomain"
	StrategyHeader    Strategy = "header"
	StrategyPath      Strategy = "path"
	StrategyNone      Strategy = "none"
)

var reservedSubdomains = map[string]struct{}{
	"www": {},
	"api": {},
}

// Candidate is a syntactically valid tenant reference. Value is lowercased.
// IsUUID marks candidates that should be looked up by tenant id instead of slug.
type Candidate struct {
	Value    string
	Strategy Strategy
	IsUUID   bool
}

// Identify applies the strategies in precedence order.
func Identify(host, header, pathParam string) (Candidate, bool) {
	if sub, ok := subdomain(host); ok {
		if c, ok := candidate(sub, StrategySubdomain); ok {
			return c, true
		}
	}
	if c, ok := candidate(header, StrategyHeader); ok {
		return c, true
	}
	if c, ok := candidate(pathParam, StrategyPath); ok {
		return c, true
	}
	return Candidate{Strategy: StrategyNone}, false
}

// FromRequest runs Identify over the Host header, the X-Tenant-ID header and
// the path.
func FromRequest(r *http.Request) (Candidate, bool) {
	return Identify(r.Host, r.Header.Get(HeaderName), PathParam(r.URL.Path))
}

// Valid reports whether raw is a usable tenant reference: a slug or a UUID.
func Valid(raw string) bool {
	_, ok := candidate(raw, StrategyNone)
	return ok
}

// PathParam returns the segment that follows "tenants" in the path, if any.
// It runs before the router has matched, so chi URL params are not available.
func PathParam(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i := 0; i < len(segments)-1; i++ {
		if segments[i] == "tenants" {
			return segments[i+1]
		}
	}
	return ""
}

func candidate(raw string, strategy Strategy) (Candidate, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return Candidate{}, false
	}
	if id.IsUUID(value) {
		return Candidate{Value: value, Strategy: strategy, IsUUID: true}, true
	}
	if !validation.Slug(value) {
		return Candidate{}, false
	}
	return Candidate{Value: value, Strategy: strategy}, true
}

// subdomain returns the first host label when the host has at least three
// labels and the label is not reserved.
func subdomain(host string) (string, bool) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", false
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if net.ParseIP(host) != nil {
		return "", false
	}
	labels := strings.Split(host, ".")
	if len(labels) < 3 {
		return "", false
	}
	first := labels[0]
	if _, reserved := reservedSubdomains[first]; reserved {
		return "", false
	}
	if strings.Contains(first, "localhost") {
		return "", false
	}
	return first, true
}
