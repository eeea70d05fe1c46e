package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authkit/pkg/logger"
)

// SeedSystemRoles creates the missing roles of the list as system roles.
// Existing roles are left as they are, so it is safe to call on every start.
func (s *Service) SeedSystemRoles(ctx context.Context, roles []SystemRole) error {
	for _, r := range roles {
		if err := ValidateRoleName(r.Name); err != nil {
			return err
		}
		if err := validateDescription(r.Description); err != nil {
			return err
		}
	}

	var created []string
	err := s.store.InTx(ctx, func(q Queries) error {
		for _, r := range roles {
			if _, err := q.GetRoleByName(ctx, r.Name); err == nil {
				continue
			} else if !errors.Is(err, ErrRoleNotFound) {
				return fmt.Errorf("lookup role by name: %w", err)
			}

			now := s.timestamp()
			role := Role{
				ID:          uuid.New(),
				Name:        r.Name,
				Description: r.Description,
				IsSystem:    true,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if r.Parent != "" {
				parent, err := q.GetRoleByName(ctx, r.Parent)
				if err != nil {
					return fmt.Errorf("parent of %s: %w", r.Name, parentError(err))
				}
				role.ParentID = &parent.ID
			}

			if err := q.CreateRole(ctx, role); err != nil {
				return fmt.Errorf("create role %s: %w", r.Name, err)
			}
			created = append(created, r.Name)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(created) > 0 {
		s.invalidate(ctx)
		s.log.InfoContext(ctx, "system roles seeded", logger.Count(len(created)))
	}
	return nil
}
