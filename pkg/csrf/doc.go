// Package csrf protects state-changing requests with the double-submit
// cookie pattern and throttles clients that keep failing validation.
//
// The server issues a random token in a cookie readable by JavaScript. The
// client echoes it back in the X-CSRF-Token header on every POST, PUT, PATCH
// and DELETE. A cross-site attacker can make the browser send the cookie but
// cannot read it, so it cannot produce the header.
//
// Tokens are 32 random bytes rendered as 64 lowercase hex characters. Both
// sides of a comparison are format-checked before a constant-time compare, so
// two equal but malformed values never validate.
//
// A Guard ties it together:
//
//	store := ratelimit.NewMemoryStore()
//	limiter, _ := ratelimit.NewFixedWindow(store, 10, 5*time.Minute)
//	guard, err := csrf.NewGuard(limiter, csrf.WithLogger(log))
//	if err != nil {
//		return err
//	}
//
//	r := chi.NewRouter()
//	r.Use(guard.Middleware)
//
//	// after login or a password change
//	token, err := guard.Rotate(w)
//
// Requests from a client that exceeded the failure threshold are refused
// with 429 and a Retry-After header before any token comparison happens.
// Safe methods, excluded pre-authentication routes and requests carrying an
// API key are never checked.
package csrf
