package clientip

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ErrInvalidProxy is returned for a trusted proxy entry that is neither an IP
// nor a CIDR.
var ErrInvalidProxy = errors.New("clientip.invalid_proxy")

// Config lists the proxies whose forwarding headers are trusted.
type Config struct {
	TrustedProxies []string `env:"CLIENTIP_TRUSTED_PROXIES" envSeparator:","`
}

// Resolver extracts client addresses. The zero value trusts no proxy.
type Resolver struct {
	trusted []netip.Prefix
}

var defaultResolver = &Resolver{}

// NewResolver creates a resolver trusting the given proxies. Entries may be
// CIDRs ("10.0.0.0/8") or single addresses ("127.0.0.1").
func NewResolver(trustedProxies ...string) (*Resolver, error) {
	r := &Resolver{}
	for _, entry := range trustedProxies {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, errors.Join(ErrInvalidProxy, fmt.Errorf("%q: %w", entry, err))
			}
			r.trusted = append(r.trusted, prefix.Masked())
			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, errors.Join(ErrInvalidProxy, fmt.Errorf("%q: %w", entry, err))
		}
		addr = addr.Unmap()
		r.trusted = append(r.trusted, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return r, nil
}

// NewResolverFromConfig creates a resolver from env configuration.
func NewResolverFromConfig(cfg Config) (*Resolver, error) {
	return NewResolver(cfg.TrustedProxies...)
}

// GetIP returns the TCP peer address of r. No forwarding header is trusted.
func GetIP(r *http.Request) string {
	return defaultResolver.IP(r)
}

// IP returns the client address of req.
func (r *Resolver) IP(req *http.Request) string {
	peer, ok := parseRemoteAddr(req.RemoteAddr)
	if !ok {
		return ""
	}
	if !r.isTrusted(peer) {
		return peer.String()
	}

	if addr, ok := parseAddr(req.Header.Get("CF-Connecting-IP")); ok {
		return addr.String()
	}

	if forwarded := req.Header.Values("X-Forwarded-For"); len(forwarded) > 0 {
		if addr, ok := r.fromForwardedFor(forwarded); ok {
			return addr.String()
		}
	}

	if addr, ok := parseAddr(req.Header.Get("X-Real-IP")); ok {
		return addr.String()
	}

	return peer.String()
}

// fromForwardedFor walks the hops from the closest one back, returning the
// first address that is not a trusted proxy. When every hop is trusted the
// furthest one wins.
func (r *Resolver) fromForwardedFor(values []string) (netip.Addr, bool) {
	var hops []string
	for _, v := range values {
		hops = append(hops, strings.Split(v, ",")...)
	}

	var furthest netip.Addr
	for i := len(hops) - 1; i >= 0; i-- {
		addr, ok := parseAddr(hops[i])
		if !ok {
			continue
		}
		if !r.isTrusted(addr) {
			return addr, true
		}
		furthest = addr
	}
	return furthest, furthest.IsValid()
}

func (r *Resolver) isTrusted(addr netip.Addr) bool {
	for _, p := range r.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func parseRemoteAddr(remote string) (netip.Addr, bool) {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		host = remote
	}
	return parseAddr(host)
}

func parseAddr(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, false
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap().WithZone(""), true
}
