package rbac

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store. Transactions run one at a time against
// a copy of the data that replaces the live state on success.
type MemoryStore struct {
	txMu  sync.Mutex
	mu    sync.RWMutex
	state *memoryState
}

var _ Store = (*MemoryStore)(nil)

type memoryState struct {
	roles       map[uuid.UUID]Role
	assignments []Assignment
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: &memoryState{roles: make(map[uuid.UUID]Role)},
	}
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(q Queries) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	draft := s.state.clone()
	s.mu.RUnlock()

	if err := fn(draft); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = draft
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) read() *memoryState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Committed states are never mutated, so readers may keep using a snapshot
// after releasing the lock.

func (s *MemoryStore) GetRole(ctx context.Context, id uuid.UUID) (Role, error) {
	return s.read().GetRole(ctx, id)
}

func (s *MemoryStore) GetRoleByName(ctx context.Context, name string) (Role, error) {
	return s.read().GetRoleByName(ctx, name)
}

func (s *MemoryStore) ListRoles(ctx context.Context) ([]Role, error) {
	return s.read().ListRoles(ctx)
}

func (s *MemoryStore) CountChildRoles(ctx context.Context, id uuid.UUID) (int, error) {
	return s.read().CountChildRoles(ctx, id)
}

func (s *MemoryStore) CountRoleMembers(ctx context.Context, roleID uuid.UUID) (int, error) {
	return s.read().CountRoleMembers(ctx, roleID)
}

func (s *MemoryStore) RoleMemberCounts(ctx context.Context) (map[uuid.UUID]int, error) {
	return s.read().RoleMemberCounts(ctx)
}

func (s *MemoryStore) ListRoleMembers(ctx context.Context, roleID uuid.UUID, limit, offset int) ([]MemberSummary, error) {
	return s.read().ListRoleMembers(ctx, roleID, limit, offset)
}

func (s *MemoryStore) PrincipalAssignments(ctx context.Context, principalID uuid.UUID) ([]Assignment, error) {
	return s.read().PrincipalAssignments(ctx, principalID)
}

func (s *MemoryStore) CountPlatformRoleHolders(ctx context.Context, roleID uuid.UUID) (int, error) {
	return s.read().CountPlatformRoleHolders(ctx, roleID)
}

// LockAssignments and LockRoles are no-ops: every write already holds the
// transaction lock.
func (s *MemoryStore) LockAssignments(context.Context) error { return nil }
func (s *MemoryStore) LockRoles(context.Context) error { return nil }

func (s *MemoryStore) CreateRole(ctx context.Context, role Role) error {
	return s.InTx(ctx, func(q Queries) error { return q.CreateRole(ctx, role) })
}

func (s *MemoryStore) UpdateRole(ctx context.Context, role Role) error {
	return s.InTx(ctx, func(q Queries) error { return q.UpdateRole(ctx, role) })
}

func (s *MemoryStore) DeleteRole(ctx context.Context, id uuid.UUID) error {
	return s.InTx(ctx, func(q Queries) error { return q.DeleteRole(ctx, id) })
}

func (s *MemoryStore) ReplacePrincipalRoles(ctx context.Context, principalID uuid.UUID, orgID *uuid.UUID, roleIDs []uuid.UUID, at time.Time) error {
	return s.InTx(ctx, func(q Queries) error {
		return q.ReplacePrincipalRoles(ctx, principalID, orgID, roleIDs, at)
	})
}

func (st *memoryState) clone() *memoryState {
	return &memoryState{
		roles:       maps.Clone(st.roles),
		assignments: slices.Clone(st.assignments),
	}
}

func (st *memoryState) GetRole(_ context.Context, id uuid.UUID) (Role, error) {
	role, ok := st.roles[id]
	if !ok {
		return Role{}, ErrRoleNotFound
	}
	return role, nil
}

func (st *memoryState) GetRoleByName(_ context.Context, name string) (Role, error) {
	for _, role := range st.roles {
		if role.Name == name {
			return role, nil
		}
	}
	return Role{}, ErrRoleNotFound
}

func (st *memoryState) ListRoles(context.Context) ([]Role, error) {
	roles := slices.Collect(maps.Values(st.roles))
	slices.SortFunc(roles, func(a, b Role) int { return cmp.Compare(a.Name, b.Name) })
	return roles, nil
}

func (st *memoryState) CountChildRoles(_ context.Context, id uuid.UUID) (int, error) {
	n := 0
	for _, role := range st.roles {
		if role.ParentID != nil && *role.ParentID == id {
			n++
		}
	}
	return n, nil
}

func (st *memoryState) CreateRole(_ context.Context, role Role) error {
	if _, ok := st.roles[role.ID]; ok {
		return ErrDuplicateRoleName
	}
	for _, existing := range st.roles {
		if existing.Name == role.Name {
			return ErrDuplicateRoleName
		}
	}
	st.roles[role.ID] = role
	return nil
}

func (st *memoryState) UpdateRole(_ context.Context, role Role) error {
	existing, ok := st.roles[role.ID]
	if !ok {
		return ErrRoleNotFound
	}
	role.Name = existing.Name
	role.IsSystem = existing.IsSystem
	role.CreatedAt = existing.CreatedAt
	st.roles[role.ID] = role
	return nil
}

func (st *memoryState) DeleteRole(_ context.Context, id uuid.UUID) error {
	if _, ok := st.roles[id]; !ok {
		return ErrRoleNotFound
	}
	for _, role := range st.roles {
		if role.ParentID != nil && *role.ParentID == id {
			return ErrRoleHasChildren
		}
	}
	delete(st.roles, id)
	return nil
}

func (st *memoryState) CountRoleMembers(_ context.Context, roleID uuid.UUID) (int, error) {
	n := 0
	for _, a := range st.assignments {
		if a.RoleID == roleID {
			n++
		}
	}
	return n, nil
}

func (st *memoryState) RoleMemberCounts(context.Context) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int)
	for _, a := range st.assignments {
		counts[a.RoleID]++
	}
	return counts, nil
}

func (st *memoryState) ListRoleMembers(_ context.Context, roleID uuid.UUID, limit, offset int) ([]MemberSummary, error) {
	var members []MemberSummary
	for _, a := range st.assignments {
		if a.RoleID != roleID {
			continue
		}
		members = append(members, MemberSummary{
			PrincipalID:    a.PrincipalID,
			OrganizationID: a.OrganizationID,
			AssignedAt:     a.CreatedAt,
		})
	}
	if offset >= len(members) {
		return []MemberSummary{}, nil
	}
	end := min(offset+limit, len(members))
	return members[offset:end], nil
}

func (st *memoryState) PrincipalAssignments(_ context.Context, principalID uuid.UUID) ([]Assignment, error) {
	var out []Assignment
	for _, a := range st.assignments {
		if a.PrincipalID == principalID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (st *memoryState) ReplacePrincipalRoles(_ context.Context, principalID uuid.UUID, orgID *uuid.UUID, roleIDs []uuid.UUID, at time.Time) error {
	for _, id := range roleIDs {
		if _, ok := st.roles[id]; !ok {
			return ErrRoleNotFound
		}
	}

	kept := make(map[uuid.UUID]struct{}, len(roleIDs))
	st.assignments = slices.DeleteFunc(st.assignments, func(a Assignment) bool {
		if a.PrincipalID != principalID || !sameScope(a.OrganizationID, orgID) {
			return false
		}
		if slices.Contains(roleIDs, a.RoleID) {
			kept[a.RoleID] = struct{}{}
			return false
		}
		return true
	})

	for _, id := range roleIDs {
		if _, ok := kept[id]; ok {
			continue
		}
		kept[id] = struct{}{}
		st.assignments = append(st.assignments, Assignment{
			PrincipalID:    principalID,
			RoleID:         id,
			OrganizationID: orgID,
			CreatedAt:      at,
		})
	}
	return nil
}

func (st *memoryState) CountPlatformRoleHolders(_ context.Context, roleID uuid.UUID) (int, error) {
	holders := make(map[uuid.UUID]struct{})
	for _, a := range st.assignments {
		if a.RoleID == roleID && a.OrganizationID == nil {
			holders[a.PrincipalID] = struct{}{}
		}
	}
	return len(holders), nil
}

func (st *memoryState) LockAssignments(context.Context) error { return nil }
func (st *memoryState) LockRoles(context.Context) error { return nil }
