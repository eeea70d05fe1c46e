package clientip

import (
	"context"
	"net/http"
)

type clientIPContextKey struct{}

// SetIPToContext stores client IP in context.
func SetIPToContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// GetIPFromContext retrieves client IP from context.
func GetIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

// FromRequest returns the address stored by a Middleware, falling back to
// resolving it with r when the middleware did not run.
func (r *Resolver) FromRequest(req *http.Request) string {
	if ip := GetIPFromContext(req.Context()); ip != "" {
		return ip
	}
	return r.IP(req)
}
