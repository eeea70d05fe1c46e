package csrf

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/authkit/pkg/audit"
	"github.com/dmitrymomot/authkit/pkg/ratelimit"
)

// ErrorHandler writes the response for a request rejected by the guard.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Option configures a Guard.
type Option func(*Guard)

func WithCookieName(name string) Option {
	return func(g *Guard) {
		if name != "" {
			g.cookieName = name
		}
	}
}

func WithHeaderName(name string) Option {
	return func(g *Guard) {
		if name != "" {
			g.headerName = name
		}
	}
}

func WithAPIKeyHeader(name string) Option {
	return func(g *Guard) {
		if name != "" {
			g.apiKeyHeader = name
		}
	}
}

func WithCookieDomain(domain string) Option {
	return func(g *Guard) {
		g.cookieDomain = domain
	}
}

// WithCookieSecure toggles the Secure attribute. Only disable it for local
// development over plain HTTP.
func WithCookieSecure(secure bool) Option {
	return func(g *Guard) {
		g.cookieSecure = secure
	}
}

// WithCookieMaxAge sets the cookie lifetime. Zero issues a session cookie.
func WithCookieMaxAge(d time.Duration) Option {
	return func(g *Guard) {
		if d >= 0 {
			g.cookieMaxAge = d
		}
	}
}

// WithRouteMatcher replaces the default excluded routes.
func WithRouteMatcher(m *RouteMatcher) Option {
	return func(g *Guard) {
		if m != nil {
			g.routes = m
		}
	}
}

// WithClientKey sets how failures are attributed to clients. Defaults to the
// client IP resolved by clientip.
func WithClientKey(fn ratelimit.KeyFunc) Option {
	return func(g *Guard) {
		if fn != nil {
			g.clientKey = fn
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.log = l
		}
	}
}

// WithAuditLogger records rejections as audit events.
func WithAuditLogger(l *audit.Logger) Option {
	return func(g *Guard) {
		g.audit = l
	}
}

// WithMetrics registers the guard counters on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(g *Guard) {
		g.metrics = newMetrics(reg)
	}
}

// WithErrorHandler overrides the response written by Middleware.
func WithErrorHandler(h ErrorHandler) Option {
	return func(g *Guard) {
		if h != nil {
			g.errorHandler = h
		}
	}
}
