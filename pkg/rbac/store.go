package rbac

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Queries is the data access contract of the service. Lookups of missing
// roles return ErrRoleNotFound, CreateRole returns ErrDuplicateRoleName on
// a name conflict and DeleteRole returns ErrRoleHasChildren while another
// role still names it as parent.
type Queries interface {
	GetRole(ctx context.Context, id uuid.UUID) (Role, error)
	GetRoleByName(ctx context.Context, name string) (Role, error)
	// ListRoles returns every role ordered by name.
	ListRoles(ctx context.Context) ([]Role, error)
	CountChildRoles(ctx context.Context, id uuid.UUID) (int, error)
	CreateRole(ctx context.Context, role Role) error
	UpdateRole(ctx context.Context, role Role) error
	DeleteRole(ctx context.Context, id uuid.UUID) error
	// LockRoles serializes parent changes until the surrounding transaction
	// ends, so concurrent moves cannot combine into a cycle.
	LockRoles(ctx context.Context) error

	// CountRoleMembers counts assignments of roleID in every scope.
	CountRoleMembers(ctx context.Context, roleID uuid.UUID) (int, error)
	// RoleMemberCounts returns CountRoleMembers for every assigned role.
	RoleMemberCounts(ctx context.Context) (map[uuid.UUID]int, error)
	ListRoleMembers(ctx context.Context, roleID uuid.UUID, limit, offset int) ([]MemberSummary, error)

	// PrincipalAssignments returns the assignments of a principal in every
	// scope, oldest first.
	PrincipalAssignments(ctx context.Context, principalID uuid.UUID) ([]Assignment, error)
	// ReplacePrincipalRoles makes roleIDs the exact set of direct roles of
	// the principal in the given scope. Retained assignments keep their
	// creation time.
	ReplacePrincipalRoles(ctx context.Context, principalID uuid.UUID, orgID *uuid.UUID, roleIDs []uuid.UUID, at time.Time) error
	// CountPlatformRoleHolders counts principals holding roleID platform-wide.
	CountPlatformRoleHolders(ctx context.Context, roleID uuid.UUID) (int, error)
	// LockAssignments serializes assignment mutations until the surrounding
	// transaction ends.
	LockAssignments(ctx context.Context) error
}

// Store runs queries directly or inside a transaction. When fn returns an
// error nothing it did is committed.
type Store interface {
	Queries
	InTx(ctx context.Context, fn func(q Queries) error) error
}
