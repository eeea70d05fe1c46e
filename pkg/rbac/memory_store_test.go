package rbac_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/rbac"
)

func TestMemoryStore_InTxRollback(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := rbac.NewMemoryStore()
	role := rbac.Role{ID: uuid.New(), Name: "ROLE_TEMP"}

	boom := errors.New("boom")
	err := store.InTx(ctx, func(q rbac.Queries) error {
		require.NoError(t, q.CreateRole(ctx, role))
		_, err := q.GetRole(ctx, role.ID)
		require.NoError(t, err, "writes are visible inside the transaction")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.GetRole(ctx, role.ID)
	assert.ErrorIs(t, err, rbac.ErrRoleNotFound)
}

func TestMemoryStore_Roles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := rbac.NewMemoryStore()
	parent := rbac.Role{ID: uuid.New(), Name: "ROLE_PARENT", IsSystem: true}
	child := rbac.Role{ID: uuid.New(), Name: "ROLE_CHILD", ParentID: &parent.ID}

	require.NoError(t, store.CreateRole(ctx, parent))
	require.NoError(t, store.CreateRole(ctx, child))
	assert.ErrorIs(t, store.CreateRole(ctx, rbac.Role{ID: uuid.New(), Name: "ROLE_CHILD"}), rbac.ErrDuplicateRoleName)

	roles, err := store.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "ROLE_CHILD", roles[0].Name)

	n, err := store.CountChildRoles(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Name and system flag are immutable.
	renamed := parent
	renamed.Name = "ROLE_RENAMED"
	renamed.IsSystem = false
	require.NoError(t, store.UpdateRole(ctx, renamed))
	got, err := store.GetRoleByName(ctx, "ROLE_PARENT")
	require.NoError(t, err)
	assert.True(t, got.IsSystem)

	assert.ErrorIs(t, store.DeleteRole(ctx, parent.ID), rbac.ErrRoleHasChildren)
	require.NoError(t, store.DeleteRole(ctx, child.ID))
	assert.ErrorIs(t, store.DeleteRole(ctx, child.ID), rbac.ErrRoleNotFound)
}

func TestMemoryStore_ReplacePrincipalRoles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := rbac.NewMemoryStore()
	a := rbac.Role{ID: uuid.New(), Name: "ROLE_AA"}
	b := rbac.Role{ID: uuid.New(), Name: "ROLE_BB"}
	require.NoError(t, store.CreateRole(ctx, a))
	require.NoError(t, store.CreateRole(ctx, b))

	p := uuid.New()
	org := uuid.New()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	require.NoError(t, store.ReplacePrincipalRoles(ctx, p, nil, []uuid.UUID{a.ID}, t0))
	require.NoError(t, store.ReplacePrincipalRoles(ctx, p, &org, []uuid.UUID{b.ID}, t0))
	require.NoError(t, store.ReplacePrincipalRoles(ctx, p, nil, []uuid.UUID{a.ID, b.ID}, t1))

	assignments, err := store.PrincipalAssignments(ctx, p)
	require.NoError(t, err)
	require.Len(t, assignments, 3)
	assert.Equal(t, a.ID, assignments[0].RoleID)
	assert.Equal(t, t0, assignments[0].CreatedAt, "retained assignment keeps its time")
	assert.Equal(t, &org, assignments[1].OrganizationID)
	assert.Equal(t, b.ID, assignments[2].RoleID)
	assert.Equal(t, t1, assignments[2].CreatedAt)

	holders, err := store.CountPlatformRoleHolders(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, holders)

	counts, err := store.RoleMemberCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[b.ID])

	members, err := store.ListRoleMembers(ctx, b.ID, 1, 1)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Nil(t, members[0].OrganizationID)

	assert.ErrorIs(t, store.ReplacePrincipalRoles(ctx, p, nil, []uuid.UUID{uuid.New()}, t1), rbac.ErrRoleNotFound)
}
