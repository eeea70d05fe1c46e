package csrf

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/authkit/pkg/audit"
	"github.com/dmitrymomot/authkit/pkg/clientip"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/ratelimit"
)

// State is the lifecycle position of the token pair on one request.
type State int

const (
	// StateAbsent means no token cookie was issued.
	StateAbsent State = iota
	// StateIssued means a well formed cookie exists but the request carries
	// no header.
	StateIssued
	// StateValid means the header matches the cookie.
	StateValid
	// StateRejected means the cookie or header is malformed or they differ.
	StateRejected
	// StateRotated means the response replaces the request token with a new
	// one.
	StateRotated
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateIssued:
		return "issued"
	case StateValid:
		return "valid"
	case StateRejected:
		return "rejected"
	case StateRotated:
		return "rotated"
	default:
		return "unknown"
	}
}

// Guard issues tokens and validates requests. It is safe for concurrent use.
type Guard struct {
	limiter ratelimit.Limiter

	cookieName   string
	headerName   string
	apiKeyHeader string
	cookieDomain string
	cookieSecure bool
	cookieMaxAge time.Duration

	routes       *RouteMatcher
	clientKey    ratelimit.KeyFunc
	errorHandler ErrorHandler

	log     *slog.Logger
	audit   *audit.Logger
	metrics *metrics
}

// NewGuard creates a guard. Validation failures are recorded on limiter and
// clients it reports as limited are refused before any comparison.
func NewGuard(limiter ratelimit.Limiter, opts ...Option) (*Guard, error) {
	if limiter == nil {
		return nil, ErrLimiterRequired
	}

	g := &Guard{
		limiter:      limiter,
		cookieName:   DefaultCookieName,
		headerName:   DefaultHeaderName,
		apiKeyHeader: DefaultAPIKeyHeader,
		cookieSecure: true,
		routes:       DefaultRouteMatcher(),
		clientKey:    clientIP,
		errorHandler: DefaultErrorHandler,
		log:          logger.Discard(),
	}

	for _, opt := range opts {
		opt(g)
	}

	g.log = g.log.With(logger.Component("csrf"))

	return g, nil
}

// clientIP prefers the address stored by clientip middleware.
func clientIP(r *http.Request) string {
	if ip := clientip.GetIPFromContext(r.Context()); ip != "" {
		return ip
	}
	return clientip.GetIP(r)
}

// Rotate issues a new token, overwriting any previous cookie, and returns it.
// Call it after login and after sensitive actions such as a password change.
func (g *Guard) Rotate(w http.ResponseWriter) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}
	http.SetCookie(w, g.cookie(token, int(g.cookieMaxAge/time.Second)))
	return token, nil
}

// Ensure returns the token of r when its cookie is well formed and issues a
// new one otherwise.
func (g *Guard) Ensure(w http.ResponseWriter, r *http.Request) (string, error) {
	if token := g.cookieToken(r); IsValidFormat(token) {
		return token, nil
	}
	return g.Rotate(w)
}

// Clear deletes the token cookie, typically on logout.
func (g *Guard) Clear(w http.ResponseWriter) {
	http.SetCookie(w, g.cookie("", -1))
}

// Token returns the cookie token of r, or "" when it is missing or malformed.
func (g *Guard) Token(r *http.Request) string {
	if token := g.cookieToken(r); IsValidFormat(token) {
		return token
	}
	return ""
}

// Inspect reports the token state of r without side effects.
func (g *Guard) Inspect(r *http.Request) State {
	cookie := g.cookieToken(r)
	switch {
	case cookie == "":
		return StateAbsent
	case !IsValidFormat(cookie):
		return StateRejected
	}

	header := r.Header.Get(g.headerName)
	switch {
	case header == "":
		return StateIssued
	case Validate(cookie, header):
		return StateValid
	default:
		return StateRejected
	}
}

// InspectResponse reports StateRotated when w already carries a token cookie
// that replaces the one sent with r, and falls back to Inspect otherwise.
// Clearing the cookie reports StateAbsent.
func (g *Guard) InspectResponse(w http.ResponseWriter, r *http.Request) State {
	for _, line := range w.Header().Values("Set-Cookie") {
		c, err := http.ParseSetCookie(line)
		if err != nil || c.Name != g.cookieName {
			continue
		}
		switch {
		case c.MaxAge < 0 || c.Value == "":
			return StateAbsent
		case c.Value != g.cookieToken(r):
			return StateRotated
		}
	}
	return g.Inspect(r)
}

// IsExcludedRoute reports whether path skips validation.
func (g *Guard) IsExcludedRoute(path string) bool {
	return g.routes.IsExcluded(path)
}

// HasAPIKeyBypass reports whether r carries the configured API key header.
func (g *Guard) HasAPIKeyBypass(r *http.Request) bool {
	return hasHeader(r, g.apiKeyHeader)
}

// Check runs the full pipeline for r. It returns nil when the request may
// proceed, a *RateLimitedError when the client is locked out, or an error
// matching ErrCSRF together with ErrTokenMissing, ErrTokenMalformed or
// ErrTokenMismatch.
func (g *Guard) Check(r *http.Request) error {
	if !RequiresValidation(r.Method) || g.IsExcludedRoute(r.URL.Path) || g.HasAPIKeyBypass(r) {
		g.metrics.observe(outcomeSkipped)
		return nil
	}

	ctx := r.Context()
	key := g.clientKey(r)

	if key != "" {
		res, err := g.limiter.Status(ctx, key)
		switch {
		case err != nil:
			g.log.ErrorContext(ctx, "failure limiter unavailable", logger.Error(err))
		case res.Limited:
			rlErr := &RateLimitedError{RetryAfter: res.RetryAfter(), ResetAt: res.ResetAt}
			g.metrics.observe(outcomeRateLimited)
			g.log.WarnContext(ctx, "csrf check refused, client rate limited",
				logger.ClientIP(clientIP(r)),
				logger.Path(r.URL.Path),
				logger.Count(res.Count),
			)
			g.recordAudit(r, audit.ActionCSRFRateLimited, rlErr,
				audit.WithMetadata("retry_after", rlErr.RetryAfterSeconds()),
			)
			return rlErr
		}
	}

	reason := g.validate(r)
	if reason == nil {
		g.metrics.observe(outcomePassed)
		return nil
	}

	attrs := []slog.Attr{
		logger.Error(reason),
		logger.ClientIP(clientIP(r)),
		logger.Method(r.Method),
		logger.Path(r.URL.Path),
	}
	if key != "" {
		res, err := g.limiter.RecordFailure(ctx, key)
		if err != nil {
			g.log.ErrorContext(ctx, "failed to record csrf failure", logger.Error(err))
		} else {
			attrs = append(attrs, logger.Count(res.Count))
		}
	}

	g.metrics.observe(outcomeOf(reason))
	g.log.LogAttrs(ctx, slog.LevelWarn, "csrf check failed", attrs...)
	meta := []audit.EventOption{audit.WithMetadata("reason", outcomeOf(reason))}
	if ua := r.UserAgent(); ua != "" {
		meta = append(meta, audit.WithMetadata("user_agent", ua))
	}
	g.recordAudit(r, audit.ActionCSRFRejected, reason, meta...)

	return validationError(reason)
}

func (g *Guard) validate(r *http.Request) error {
	cookie := g.cookieToken(r)
	header := r.Header.Get(g.headerName)

	switch {
	case cookie == "" || header == "":
		return ErrTokenMissing
	case !IsValidFormat(cookie) || !IsValidFormat(header):
		return ErrTokenMalformed
	case !Validate(cookie, header):
		return ErrTokenMismatch
	default:
		return nil
	}
}

func (g *Guard) recordAudit(r *http.Request, action string, reason error, opts ...audit.EventOption) {
	if g.audit == nil {
		return
	}
	opts = append(opts,
		audit.WithIP(clientIP(r)),
		audit.WithResource("route", r.Method+" "+r.URL.Path),
	)
	if err := g.audit.LogFailure(r.Context(), action, reason, opts...); err != nil {
		g.log.ErrorContext(r.Context(), "failed to write audit event", logger.Error(err))
	}
}

func (g *Guard) cookieToken(r *http.Request) string {
	c, err := r.Cookie(g.cookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// cookie must stay readable by JavaScript so the client can echo it.
func (g *Guard) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     g.cookieName,
		Value:    value,
		Path:     "/",
		Domain:   g.cookieDomain,
		MaxAge:   maxAge,
		Secure:   g.cookieSecure,
		HttpOnly: false,
		SameSite: http.SameSiteStrictMode,
	}
}
