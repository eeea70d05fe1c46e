package rbac

import (
	"time"

	"github.com/google/uuid"
)

// Role is a node of the role forest. A role inherits every role on its parent
// chain: a principal holding ROLE_ADMIN whose parent is ROLE_USER is also
// granted ROLE_USER.
type Role struct {
	ID          uuid.UUID
	Name        string
	Description string
	ParentID    *uuid.UUID
	IsSystem    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RoleRef is the short form of a role used in nested views.
type RoleRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// RoleSummary is the list view of a role.
type RoleSummary struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	ParentName  string     `json:"parent_name,omitempty"`
	IsSystem    bool       `json:"is_system"`
	UserCount   int        `json:"user_count"`
	ChildCount  int        `json:"child_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// RoleDetail is the expanded view of a single role.
type RoleDetail struct {
	RoleSummary
	Users    Page[MemberSummary] `json:"users"`
	Children []RoleRef           `json:"children"`
}

// MemberSummary describes one assignment of a role.
type MemberSummary struct {
	PrincipalID    uuid.UUID  `json:"principal_id"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	AssignedAt     time.Time  `json:"assigned_at"`
}

// Assignment links a principal to a direct role. A nil OrganizationID means
// the role is held platform-wide.
type Assignment struct {
	PrincipalID    uuid.UUID
	RoleID         uuid.UUID
	OrganizationID *uuid.UUID
	CreatedAt      time.Time
}

// PrincipalRoleSet lists the roles of a principal in one scope. Direct roles
// keep assignment order. Inherited roles exclude the direct ones.
type PrincipalRoleSet struct {
	Direct    []RoleRef `json:"direct"`
	Inherited []RoleRef `json:"inherited"`
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PageRequest selects a window of a paginated list.
type PageRequest struct {
	Limit  int
	Offset int
}

func (p PageRequest) normalize() PageRequest {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	p.Limit = min(p.Limit, MaxPageLimit)
	p.Offset = max(p.Offset, 0)
	return p
}

// Page is one window of a paginated list.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// CreateRoleInput holds the fields of a new role. The name cannot be changed
// later.
type CreateRoleInput struct {
	Name        string
	Description string
	ParentID    *uuid.UUID
}

// UpdateRoleInput holds the mutable fields of a role. Nil Description leaves
// the description unchanged.
type UpdateRoleInput struct {
	Description *string
	ParentID    OptionalID
}

// OptionalID distinguishes "leave unchanged" from "set to nil".
type OptionalID struct {
	Set bool
	ID  *uuid.UUID
}

// SetParent returns an OptionalID moving a role under id.
func SetParent(id uuid.UUID) OptionalID {
	return OptionalID{Set: true, ID: &id}
}

// ClearParent returns an OptionalID turning a role into a root.
func ClearParent() OptionalID {
	return OptionalID{Set: true}
}

// SetPrincipalRolesInput replaces the direct roles of PrincipalID in one
// scope. ActorID is the principal performing the change.
type SetPrincipalRolesInput struct {
	ActorID        uuid.UUID
	PrincipalID    uuid.UUID
	OrganizationID *uuid.UUID
	RoleIDs        []uuid.UUID
}

// SystemRole describes a role created by SeedSystemRoles. Parent is a role
// name and must be seeded earlier in the same call or already exist.
type SystemRole struct {
	Name        string
	Description string
	Parent      string
}

const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// DefaultSystemRoles returns ROLE_USER and ROLE_ADMIN, the latter inheriting
// the former.
func DefaultSystemRoles() []SystemRole {
	return []SystemRole{
		{Name: RoleUser, Description: "Default role of every user"},
		{Name: RoleAdmin, Description: "Platform administrator", Parent: RoleUser},
	}
}

func sameScope(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
