package rbac

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authkit/pkg/audit"
	"github.com/dmitrymomot/authkit/pkg/logger"
)

// SetPrincipalRoles replaces the direct roles of a principal in one scope.
// It is the only way to change assignments. When the change removes the
// platform administrator role it fails with ErrSelfDemotion if the actor is
// the principal, and with ErrLastAdmin if no platform administrator would
// remain. Either failure leaves the assignments untouched.
func (s *Service) SetPrincipalRoles(ctx context.Context, in SetPrincipalRolesInput) error {
	roleIDs := dedupe(in.RoleIDs)

	var removedAdmin bool
	err := s.store.InTx(ctx, func(q Queries) error {
		if err := q.LockAssignments(ctx); err != nil {
			return fmt.Errorf("lock assignments: %w", err)
		}

		for _, id := range roleIDs {
			if _, err := q.GetRole(ctx, id); err != nil {
				if errors.Is(err, ErrRoleNotFound) {
					return newValidationError("role_ids",
						fmt.Sprintf("role %s does not exist", id), ErrRoleNotFound)
				}
				return fmt.Errorf("get role: %w", err)
			}
		}

		admin, err := q.GetRoleByName(ctx, s.adminRole)
		hasAdminRole := err == nil
		if err != nil && !errors.Is(err, ErrRoleNotFound) {
			return fmt.Errorf("get admin role: %w", err)
		}

		if hasAdminRole && in.OrganizationID == nil {
			current, err := q.PrincipalAssignments(ctx, in.PrincipalID)
			if err != nil {
				return fmt.Errorf("load principal assignments: %w", err)
			}
			held := slices.ContainsFunc(current, func(a Assignment) bool {
				return a.RoleID == admin.ID && a.OrganizationID == nil
			})
			removedAdmin = held && !slices.Contains(roleIDs, admin.ID)
		}

		if removedAdmin && in.ActorID == in.PrincipalID {
			return newValidationError("role_ids",
				"you cannot remove your own administrator role", ErrSelfDemotion)
		}

		if err := q.ReplacePrincipalRoles(ctx, in.PrincipalID, in.OrganizationID, roleIDs, s.timestamp()); err != nil {
			return fmt.Errorf("replace principal roles: %w", err)
		}

		if removedAdmin {
			remaining, err := q.CountPlatformRoleHolders(ctx, admin.ID)
			if err != nil {
				return fmt.Errorf("count administrators: %w", err)
			}
			if remaining == 0 {
				return newValidationError("role_ids",
					"at least one platform administrator must remain", ErrLastAdmin)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrLastAdmin) || errors.Is(err, ErrSelfDemotion) {
			s.log.WarnContext(ctx, "role assignment refused",
				logger.ActorID(in.ActorID),
				logger.PrincipalID(in.PrincipalID),
				logger.Error(err),
			)
		}
		return err
	}

	ids := make([]string, len(roleIDs))
	for i, id := range roleIDs {
		ids[i] = id.String()
	}

	s.log.InfoContext(ctx, "principal roles set",
		logger.ActorID(in.ActorID),
		logger.PrincipalID(in.PrincipalID),
		logger.OrganizationID(in.OrganizationID),
		logger.Count(len(roleIDs)),
	)

	opts := []audit.EventOption{
		audit.WithActor(in.ActorID.String()),
		audit.WithResource("principal", in.PrincipalID.String()),
		audit.WithMetadata("role_ids", ids),
		audit.WithMetadata("removed_admin", removedAdmin),
	}
	if in.OrganizationID != nil {
		opts = append(opts, audit.WithOrganization(in.OrganizationID.String()))
	}
	s.recordAudit(ctx, audit.ActionPrincipalRolesSet, opts...)

	return nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
