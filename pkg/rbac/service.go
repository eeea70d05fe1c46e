package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/authkit/pkg/audit"
	"github.com/dmitrymomot/authkit/pkg/logger"
)

// Service manages the role forest and answers authorization queries. It is
// safe for concurrent use.
type Service struct {
	store     Store
	cache     *hierarchyCache
	adminRole string
	now       func() time.Time

	log     *slog.Logger
	audit   *audit.Logger
	metrics *metrics

	bus       InvalidationBus
	stopBus   func() error
	closeOnce sync.Once
}

// NewService creates a service on top of store. With an invalidation bus it
// subscribes immediately; call Close to unsubscribe.
func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	s := &Service{
		store:     store,
		adminRole: RoleAdmin,
		now:       time.Now,
		log:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := ValidateRoleName(s.adminRole); err != nil {
		return nil, fmt.Errorf("admin role: %w", err)
	}

	s.log = s.log.With(logger.Component("rbac"))
	s.cache = newHierarchyCache(store.ListRoles, s.log, s.metrics)

	if s.bus != nil {
		stop, err := s.bus.Subscribe(context.Background(), func() {
			s.cache.invalidate()
			s.log.Debug("role hierarchy invalidated by peer")
		})
		if err != nil {
			return nil, fmt.Errorf("subscribe to invalidations: %w", err)
		}
		s.stopBus = stop
	}

	return s, nil
}

// AdminRole returns the name of the guarded platform administrator role.
func (s *Service) AdminRole() string {
	return s.adminRole
}

// InvalidateCache drops the hierarchy cache here and on every peer.
func (s *Service) InvalidateCache(ctx context.Context) {
	s.invalidate(ctx)
}

// Close ends the invalidation bus subscription.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.stopBus != nil {
			err = s.stopBus()
		}
	})
	return err
}

func (s *Service) invalidate(ctx context.Context) {
	s.cache.invalidate()
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx); err != nil {
		s.log.ErrorContext(ctx, "failed to publish hierarchy invalidation", logger.Error(err))
	}
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC()
}

func (s *Service) recordAudit(ctx context.Context, action string, opts ...audit.EventOption) {
	if err := s.audit.Log(ctx, action, opts...); err != nil {
		s.log.ErrorContext(ctx, "failed to write audit event", logger.Event(action), logger.Error(err))
	}
}
