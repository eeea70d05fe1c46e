package csrf

import (
	"time"

	"github.com/dmitrymomot/authkit/pkg/ratelimit"
)

const (
	DefaultCookieName   = "csrf_token"
	DefaultHeaderName   = "X-CSRF-Token"
	DefaultAPIKeyHeader = "X-API-Key"

	DefaultFailureThreshold = 10
	DefaultFailureWindow    = 5 * time.Minute
)

// Config is the env representation of the guard settings.
type Config struct {
	CookieName   string        `env:"CSRF_COOKIE_NAME" envDefault:"csrf_token"`
	HeaderName   string        `env:"CSRF_HEADER_NAME" envDefault:"X-CSRF-Token"`
	APIKeyHeader string        `env:"CSRF_API_KEY_HEADER" envDefault:"X-API-Key"`
	CookieDomain string        `env:"CSRF_COOKIE_DOMAIN"`
	CookieSecure bool          `env:"CSRF_COOKIE_SECURE" envDefault:"true"`
	CookieMaxAge time.Duration `env:"CSRF_COOKIE_MAX_AGE" envDefault:"0s"` // zero issues a session cookie

	FailureThreshold int           `env:"CSRF_FAILURE_THRESHOLD" envDefault:"10"`
	FailureWindow    time.Duration `env:"CSRF_FAILURE_WINDOW" envDefault:"5m"`

	// Replace the defaults when set.
	ExcludedPaths    []string `env:"CSRF_EXCLUDED_PATHS" envSeparator:","`
	ExcludedPrefixes []string `env:"CSRF_EXCLUDED_PREFIXES" envSeparator:","`
}

// FromConfig translates cfg into guard options.
func FromConfig(cfg Config) []Option {
	opts := []Option{
		WithCookieName(cfg.CookieName),
		WithHeaderName(cfg.HeaderName),
		WithAPIKeyHeader(cfg.APIKeyHeader),
		WithCookieDomain(cfg.CookieDomain),
		WithCookieSecure(cfg.CookieSecure),
		WithCookieMaxAge(cfg.CookieMaxAge),
	}

	if len(cfg.ExcludedPaths) > 0 || len(cfg.ExcludedPrefixes) > 0 {
		paths, prefixes := cfg.ExcludedPaths, cfg.ExcludedPrefixes
		if len(paths) == 0 {
			paths = DefaultExcludedPaths
		}
		if len(prefixes) == 0 {
			prefixes = DefaultExcludedPrefixes
		}
		opts = append(opts, WithRouteMatcher(NewRouteMatcher(paths, prefixes)))
	}

	return opts
}

// NewLimiter builds the failure limiter described by cfg on top of store.
func NewLimiter(store ratelimit.Store, cfg Config, opts ...ratelimit.Option) (*ratelimit.FixedWindow, error) {
	threshold := cfg.FailureThreshold
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	window := cfg.FailureWindow
	if window <= 0 {
		window = DefaultFailureWindow
	}
	return ratelimit.NewFixedWindow(store, threshold, window, opts...)
}
