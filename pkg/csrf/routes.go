package csrf

import (
	"net/http"
	"strings"
)

// DefaultExcludedPaths are pre-authentication endpoints that a browser
// reaches before it holds a token. Matched exactly.
var DefaultExcludedPaths = []string{
	"/api/auth/login",
	"/api/auth/register",
	"/api/auth/password/forgot",
	"/api/auth/password/reset",
	"/api/auth/verify-email",
	"/api/auth/unlock/request",
	"/api/auth/unlock/verify",
}

// DefaultExcludedPrefixes are route families matched by prefix: OAuth
// provider callbacks and invitation links.
var DefaultExcludedPrefixes = []string{
	"/api/auth/oauth/",
	"/api/invitations/",
}

// RequiresValidation reports whether requests with method must carry a
// token. Method matching is case-insensitive.
func RequiresValidation(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// RouteMatcher decides which paths skip CSRF validation.
type RouteMatcher struct {
	exact    map[string]struct{}
	prefixes []string
}

// NewRouteMatcher builds a matcher from exact paths and path prefixes.
// Empty entries are ignored.
func NewRouteMatcher(paths, prefixes []string) *RouteMatcher {
	m := &RouteMatcher{
		exact:    make(map[string]struct{}, len(paths)),
		prefixes: make([]string, 0, len(prefixes)),
	}
	for _, p := range paths {
		if p != "" {
			m.exact[p] = struct{}{}
		}
	}
	for _, p := range prefixes {
		if p != "" {
			m.prefixes = append(m.prefixes, p)
		}
	}
	return m
}

// DefaultRouteMatcher matches DefaultExcludedPaths and DefaultExcludedPrefixes.
func DefaultRouteMatcher() *RouteMatcher {
	return NewRouteMatcher(DefaultExcludedPaths, DefaultExcludedPrefixes)
}

// IsExcluded reports whether path is exempt from validation.
func (m *RouteMatcher) IsExcluded(path string) bool {
	if m == nil {
		return false
	}
	if _, ok := m.exact[path]; ok {
		return true
	}
	for _, p := range m.prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// HasAPIKeyBypass reports whether r carries a non-empty X-API-Key header.
// Such requests are authenticated by the API key downstream and are not
// subject to CSRF checks.
func HasAPIKeyBypass(r *http.Request) bool {
	return hasHeader(r, DefaultAPIKeyHeader)
}

func hasHeader(r *http.Request, name string) bool {
	return strings.TrimSpace(r.Header.Get(name)) != ""
}
