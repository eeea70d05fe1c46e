package rbac

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/authkit/pkg/audit"
)

// Option configures a Service.
type Option func(*Service)

// WithAdminRole sets the platform administrator role guarded by
// SetPrincipalRoles. Defaults to ROLE_ADMIN.
func WithAdminRole(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.adminRole = name
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithAuditLogger records role and assignment mutations.
func WithAuditLogger(l *audit.Logger) Option {
	return func(s *Service) {
		s.audit = l
	}
}

// WithMetrics registers the cache counters on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *Service) {
		s.metrics = newMetrics(reg)
	}
}

// WithInvalidationBus shares cache invalidations with other instances.
func WithInvalidationBus(bus InvalidationBus) Option {
	return func(s *Service) {
		s.bus = bus
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
