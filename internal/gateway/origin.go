package gateway

import (
	"net/http"
	"net/url"
	"strings"
)

// originChecker validates the Origin header of upgrade requests against the
// configured allow list. A "*" entry allows every origin; non-browser clients
// without an Origin header are always allowed.
type originChecker struct {
	allowAll bool
	allowed  map[string]struct{}
}

func newOriginChecker(origins []string) *originChecker {
	oc := &originChecker{allowed: make(map[string]struct{}, len(origins))}
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			oc.allowAll = true
			continue
		}
		if normalized, ok := normalizeOrigin(trimmed); ok {
			oc.allowed[normalized] = struct{}{}
		}
	}
	return oc
}

func (oc *originChecker) check(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if oc.allowAll {
		return true
	}
	normalized, ok := normalizeOrigin(origin)
	if !ok {
		return false
	}
	_, exists := oc.allowed[normalized]
	return exists
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}
