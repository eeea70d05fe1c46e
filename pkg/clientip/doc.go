// Package clientip resolves the originating client address of an
// *http.Request.
//
// Forwarding headers are only honoured when the direct peer (RemoteAddr) is a
// trusted proxy. Requests arriving from anywhere else are attributed to
// their TCP peer, so a client cannot pick its own address by sending an
// X-Forwarded-For header. This matters for anything keyed by IP, such as the
// CSRF failure limiter.
//
// When the peer is trusted the headers are examined in order:
//
//  1. CF-Connecting-IP
//  2. X-Forwarded-For, walked right to left skipping trusted hops
//  3. X-Real-IP
//
// and RemoteAddr is the fallback.
//
//	resolver, err := clientip.NewResolver("10.0.0.0/8", "2001:db8::/32")
//	if err != nil {
//		return err
//	}
//	handler = resolver.Middleware(handler)
//
//	// downstream
//	ip := clientip.GetIPFromContext(r.Context())
//
// GetIP never returns an error. If no valid address is found an empty string
// is returned so callers can decide how to proceed.
package clientip
