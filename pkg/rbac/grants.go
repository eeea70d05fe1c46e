package rbac

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// IsGranted reports whether holding the direct roles includes the role
// named required, either directly or through a parent chain. Unknown role
// names are never granted.
func (s *Service) IsGranted(ctx context.Context, direct []uuid.UUID, required string) (bool, error) {
	if len(direct) == 0 {
		return false, nil
	}

	h, err := s.cache.get(ctx)
	if err != nil {
		return false, fmt.Errorf("load role hierarchy: %w", err)
	}

	requiredID, ok := h.roleID(required)
	if !ok {
		return false, nil
	}
	return h.grants(direct, requiredID), nil
}

// GetInheritedRoles returns every strict ancestor of the direct roles that
// is not itself direct, deduplicated and ordered by name.
func (s *Service) GetInheritedRoles(ctx context.Context, direct []uuid.UUID) ([]RoleRef, error) {
	h, err := s.cache.get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load role hierarchy: %w", err)
	}
	return h.inherited(direct), nil
}

// IsPrincipalGranted resolves the direct roles a principal holds
// platform-wide and in orgID, then calls IsGranted.
func (s *Service) IsPrincipalGranted(ctx context.Context, principalID uuid.UUID, orgID *uuid.UUID, required string) (bool, error) {
	direct, err := s.directRoleIDs(ctx, principalID, orgID)
	if err != nil {
		return false, err
	}
	return s.IsGranted(ctx, direct, required)
}

// PrincipalRoles lists the direct and inherited roles a principal holds
// platform-wide and in orgID.
func (s *Service) PrincipalRoles(ctx context.Context, principalID uuid.UUID, orgID *uuid.UUID) (*PrincipalRoleSet, error) {
	direct, err := s.directRoleIDs(ctx, principalID, orgID)
	if err != nil {
		return nil, err
	}

	h, err := s.cache.get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load role hierarchy: %w", err)
	}

	set := &PrincipalRoleSet{
		Direct:    make([]RoleRef, 0, len(direct)),
		Inherited: h.inherited(direct),
	}
	for _, id := range direct {
		if h.has(id) {
			set.Direct = append(set.Direct, h.ref(id))
		}
	}
	return set, nil
}

func (s *Service) directRoleIDs(ctx context.Context, principalID uuid.UUID, orgID *uuid.UUID) ([]uuid.UUID, error) {
	assignments, err := s.store.PrincipalAssignments(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("load principal assignments: %w", err)
	}

	seen := make(map[uuid.UUID]struct{}, len(assignments))
	ids := make([]uuid.UUID, 0, len(assignments))
	for _, a := range assignments {
		if a.OrganizationID != nil && !sameScope(a.OrganizationID, orgID) {
			continue
		}
		if _, ok := seen[a.RoleID]; ok {
			continue
		}
		seen[a.RoleID] = struct{}{}
		ids = append(ids, a.RoleID)
	}
	return ids, nil
}
