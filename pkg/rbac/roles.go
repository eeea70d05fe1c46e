package rbac

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authkit/pkg/audit"
	"github.com/dmitrymomot/authkit/pkg/logger"
)

// CreateRole adds a role to the forest.
func (s *Service) CreateRole(ctx context.Context, in CreateRoleInput) (*RoleSummary, error) {
	if err := ValidateRoleName(in.Name); err != nil {
		return nil, err
	}
	if err := validateDescription(in.Description); err != nil {
		return nil, err
	}

	now := s.timestamp()
	role := Role{
		ID:          uuid.New(),
		Name:        in.Name,
		Description: in.Description,
		ParentID:    in.ParentID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var summary *RoleSummary
	err := s.store.InTx(ctx, func(q Queries) error {
		var parent *Role
		if role.ParentID != nil {
			if err := q.LockRoles(ctx); err != nil {
				return fmt.Errorf("lock roles: %w", err)
			}
			p, err := q.GetRole(ctx, *role.ParentID)
			if err != nil {
				return parentError(err)
			}
			parent = &p
		}

		if _, err := q.GetRoleByName(ctx, role.Name); err == nil {
			return duplicateNameError()
		} else if !errors.Is(err, ErrRoleNotFound) {
			return fmt.Errorf("lookup role by name: %w", err)
		}

		if err := q.CreateRole(ctx, role); err != nil {
			if errors.Is(err, ErrDuplicateRoleName) {
				return duplicateNameError()
			}
			return fmt.Errorf("create role: %w", err)
		}

		summary = newSummary(role, parent, 0, 0)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.log.InfoContext(ctx, "role created", logger.RoleID(role.ID), logger.RoleName(role.Name))
	s.recordAudit(ctx, audit.ActionRoleCreated,
		audit.WithResource("role", role.ID.String()),
		audit.WithMetadata("name", role.Name),
	)

	return summary, nil
}

// UpdateRole changes the description and parent of a role. Moving a role
// under one of its own descendants is rejected with ErrCircularHierarchy.
func (s *Service) UpdateRole(ctx context.Context, id uuid.UUID, in UpdateRoleInput) (*RoleSummary, error) {
	if in.Description != nil {
		if err := validateDescription(*in.Description); err != nil {
			return nil, err
		}
	}

	var (
		summary       *RoleSummary
		parentChanged bool
	)
	err := s.store.InTx(ctx, func(q Queries) error {
		if in.ParentID.Set {
			if err := q.LockRoles(ctx); err != nil {
				return fmt.Errorf("lock roles: %w", err)
			}
		}

		role, err := q.GetRole(ctx, id)
		if err != nil {
			return err
		}

		if in.ParentID.Set {
			if err := s.checkParent(ctx, q, id, in.ParentID.ID); err != nil {
				return err
			}
			parentChanged = !sameScope(role.ParentID, in.ParentID.ID)
			role.ParentID = in.ParentID.ID
		}
		if in.Description != nil {
			role.Description = *in.Description
		}
		role.UpdatedAt = s.timestamp()

		if err := q.UpdateRole(ctx, role); err != nil {
			return fmt.Errorf("update role: %w", err)
		}

		summary, err = summarize(ctx, q, role)
		return err
	})
	if err != nil {
		return nil, err
	}

	if parentChanged {
		s.invalidate(ctx)
	}
	s.log.InfoContext(ctx, "role updated",
		logger.RoleID(id),
		logger.RoleName(summary.Name),
		slog.Bool("parent_changed", parentChanged),
	)
	s.recordAudit(ctx, audit.ActionRoleUpdated,
		audit.WithResource("role", id.String()),
		audit.WithMetadata("parent_changed", parentChanged),
	)

	return summary, nil
}

func (s *Service) checkParent(ctx context.Context, q Queries, id uuid.UUID, parentID *uuid.UUID) error {
	if parentID == nil {
		return nil
	}
	if *parentID == id {
		return newValidationError("parent_id", "role cannot be its own parent", ErrSelfParent)
	}
	if _, err := q.GetRole(ctx, *parentID); err != nil {
		return parentError(err)
	}

	roles, err := q.ListRoles(ctx)
	if err != nil {
		return fmt.Errorf("list roles: %w", err)
	}
	if wouldCreateCycle(roles, id, *parentID) {
		return newValidationError("parent_id", "parent is a descendant of the role", ErrCircularHierarchy)
	}
	return nil
}

// DeleteRole removes a role without members or children. System roles
// cannot be deleted.
func (s *Service) DeleteRole(ctx context.Context, id uuid.UUID) error {
	var name string
	err := s.store.InTx(ctx, func(q Queries) error {
		role, err := q.GetRole(ctx, id)
		if err != nil {
			return err
		}
		name = role.Name

		if role.IsSystem {
			return newValidationError("id", "system roles cannot be deleted", ErrSystemRole)
		}

		// Holds off concurrent assignments and new children until the role
		// is gone.
		if err := q.LockAssignments(ctx); err != nil {
			return fmt.Errorf("lock assignments: %w", err)
		}
		if err := q.LockRoles(ctx); err != nil {
			return fmt.Errorf("lock roles: %w", err)
		}

		members, err := q.CountRoleMembers(ctx, id)
		if err != nil {
			return fmt.Errorf("count role members: %w", err)
		}
		if members > 0 {
			return newValidationError("id",
				fmt.Sprintf("role is assigned to %d principal(s)", members), ErrRoleHasMembers)
		}

		children, err := q.CountChildRoles(ctx, id)
		if err != nil {
			return fmt.Errorf("count child roles: %w", err)
		}
		if children > 0 {
			return newValidationError("id",
				fmt.Sprintf("role has %d child role(s)", children), ErrRoleHasChildren)
		}

		switch err := q.DeleteRole(ctx, id); {
		case errors.Is(err, ErrRoleHasChildren):
			return newValidationError("id", "role has child roles", ErrRoleHasChildren)
		case err != nil:
			return fmt.Errorf("delete role: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	s.log.InfoContext(ctx, "role deleted", logger.RoleID(id), logger.RoleName(name))
	s.recordAudit(ctx, audit.ActionRoleDeleted,
		audit.WithResource("role", id.String()),
		audit.WithMetadata("name", name),
	)
	return nil
}

// GetRole returns the summary of the role with id.
func (s *Service) GetRole(ctx context.Context, id uuid.UUID) (*RoleSummary, error) {
	role, err := s.store.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}
	return summarize(ctx, s.store, role)
}

// GetRoleByName returns the summary of the role called name.
func (s *Service) GetRoleByName(ctx context.Context, name string) (*RoleSummary, error) {
	role, err := s.store.GetRoleByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return summarize(ctx, s.store, role)
}

// ListRoles returns the summaries of every role ordered by name.
func (s *Service) ListRoles(ctx context.Context) ([]RoleSummary, error) {
	roles, err := s.store.ListRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	members, err := s.store.RoleMemberCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count role members: %w", err)
	}

	byID := make(map[uuid.UUID]*Role, len(roles))
	children := make(map[uuid.UUID]int, len(roles))
	for i := range roles {
		byID[roles[i].ID] = &roles[i]
		if p := roles[i].ParentID; p != nil {
			children[*p]++
		}
	}

	out := make([]RoleSummary, 0, len(roles))
	for _, r := range roles {
		var parent *Role
		if r.ParentID != nil {
			parent = byID[*r.ParentID]
		}
		out = append(out, *newSummary(r, parent, members[r.ID], children[r.ID]))
	}
	return out, nil
}

// GetRoleDetail returns a role with a page of its members and its direct
// children.
func (s *Service) GetRoleDetail(ctx context.Context, id uuid.UUID, page PageRequest) (*RoleDetail, error) {
	page = page.normalize()

	role, err := s.store.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}
	summary, err := summarize(ctx, s.store, role)
	if err != nil {
		return nil, err
	}

	members, err := s.store.ListRoleMembers(ctx, id, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list role members: %w", err)
	}

	roles, err := s.store.ListRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	children := []RoleRef{}
	for _, r := range roles {
		if r.ParentID != nil && *r.ParentID == id {
			children = append(children, RoleRef{ID: r.ID, Name: r.Name})
		}
	}
	slices.SortFunc(children, func(a, b RoleRef) int { return cmp.Compare(a.Name, b.Name) })

	return &RoleDetail{
		RoleSummary: *summary,
		Users: Page[MemberSummary]{
			Items:  members,
			Total:  summary.UserCount,
			Limit:  page.Limit,
			Offset: page.Offset,
		},
		Children: children,
	}, nil
}

func summarize(ctx context.Context, q Queries, role Role) (*RoleSummary, error) {
	var parent *Role
	if role.ParentID != nil {
		p, err := q.GetRole(ctx, *role.ParentID)
		switch {
		case err == nil:
			parent = &p
		case !errors.Is(err, ErrRoleNotFound):
			return nil, fmt.Errorf("get parent role: %w", err)
		}
	}

	members, err := q.CountRoleMembers(ctx, role.ID)
	if err != nil {
		return nil, fmt.Errorf("count role members: %w", err)
	}
	children, err := q.CountChildRoles(ctx, role.ID)
	if err != nil {
		return nil, fmt.Errorf("count child roles: %w", err)
	}

	return newSummary(role, parent, members, children), nil
}

func newSummary(role Role, parent *Role, members, children int) *RoleSummary {
	s := &RoleSummary{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		ParentID:    role.ParentID,
		IsSystem:    role.IsSystem,
		UserCount:   members,
		ChildCount:  children,
		CreatedAt:   role.CreatedAt,
		UpdatedAt:   role.UpdatedAt,
	}
	if parent != nil {
		s.ParentName = parent.Name
	}
	return s
}

func parentError(err error) error {
	if errors.Is(err, ErrRoleNotFound) {
		return newValidationError("parent_id", "parent role does not exist", ErrParentNotFound)
	}
	return fmt.Errorf("get parent role: %w", err)
}

func duplicateNameError() error {
	return newValidationError("name", "role name is already taken", ErrDuplicateRoleName)
}
