package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/authkit/pkg/pg"
	"github.com/dmitrymomot/authkit/pkg/rbac"
)

// Advisory lock keys. Arbitrary but fixed so every instance agrees.
const (
	assignmentsLockKey int64 = 0x61757468_6b697401
	rolesLockKey       int64 = 0x61757468_6b697402
)

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is a PostgreSQL rbac.Store.
type Store struct {
	queries
	pool *pgxpool.Pool
}

var _ rbac.Store = (*Store)(nil)

// New creates a store on pool. Run Migrate first.
func New(pool *pgxpool.Pool) *Store {
	return &Store{queries: queries{db: pool}, pool: pool}
}

func (s *Store) InTx(ctx context.Context, fn func(q rbac.Queries) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&queries{db: tx})
	})
}

type queries struct {
	db dbtx
}

const roleColumns = `id, name, description, parent_id, is_system, created_at, updated_at`

func scanRole(row pgx.Row) (rbac.Role, error) {
	var r rbac.Role
	err := row.Scan(&r.ID, &r.Name, &r.Description, &r.ParentID, &r.IsSystem, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (q *queries) GetRole(ctx context.Context, id uuid.UUID) (rbac.Role, error) {
	role, err := scanRole(q.db.QueryRow(ctx,
		`SELECT `+roleColumns+` FROM rbac_roles WHERE id = $1`, id))
	if err != nil {
		return rbac.Role{}, roleError(err)
	}
	return role, nil
}

func (q *queries) GetRoleByName(ctx context.Context, name string) (rbac.Role, error) {
	role, err := scanRole(q.db.QueryRow(ctx,
		`SELECT `+roleColumns+` FROM rbac_roles WHERE name = $1`, name))
	if err != nil {
		return rbac.Role{}, roleError(err)
	}
	return role, nil
}

func (q *queries) ListRoles(ctx context.Context) ([]rbac.Role, error) {
	rows, err := q.db.Query(ctx, `SELECT `+roleColumns+` FROM rbac_roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	roles, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (rbac.Role, error) {
		return scanRole(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan roles: %w", err)
	}
	return roles, nil
}

func (q *queries) CountChildRoles(ctx context.Context, id uuid.UUID) (int, error) {
	return q.count(ctx, `SELECT count(*) FROM rbac_roles WHERE parent_id = $1`, id)
}

func (q *queries) CreateRole(ctx context.Context, role rbac.Role) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO rbac_roles (`+roleColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		role.ID, role.Name, role.Description, role.ParentID, role.IsSystem, role.CreatedAt, role.UpdatedAt)
	switch {
	case err == nil:
		return nil
	case pg.IsDuplicateKeyError(err):
		return rbac.ErrDuplicateRoleName
	case pg.IsForeignKeyViolationError(err):
		return rbac.ErrRoleNotFound
	default:
		return fmt.Errorf("insert role: %w", err)
	}
}

// UpdateRole writes the mutable columns only.
func (q *queries) UpdateRole(ctx context.Context, role rbac.Role) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE rbac_roles SET description = $2, parent_id = $3, updated_at = $4 WHERE id = $1`,
		role.ID, role.Description, role.ParentID, role.UpdatedAt)
	switch {
	case err == nil && tag.RowsAffected() == 0:
		return rbac.ErrRoleNotFound
	case err == nil:
		return nil
	case pg.IsForeignKeyViolationError(err):
		return rbac.ErrRoleNotFound
	default:
		return fmt.Errorf("update role: %w", err)
	}
}

func (q *queries) DeleteRole(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM rbac_roles WHERE id = $1`, id)
	switch {
	case err == nil:
	case pg.IsForeignKeyViolationError(err):
		return rbac.ErrRoleHasChildren
	default:
		return fmt.Errorf("delete role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return rbac.ErrRoleNotFound
	}
	return nil
}

func (q *queries) LockRoles(ctx context.Context) error {
	_, err := q.db.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, rolesLockKey)
	return err
}

func (q *queries) CountRoleMembers(ctx context.Context, roleID uuid.UUID) (int, error) {
	return q.count(ctx, `SELECT count(*) FROM rbac_assignments WHERE role_id = $1`, roleID)
}

func (q *queries) RoleMemberCounts(ctx context.Context) (map[uuid.UUID]int, error) {
	rows, err := q.db.Query(ctx, `SELECT role_id, count(*) FROM rbac_assignments GROUP BY role_id`)
	if err != nil {
		return nil, fmt.Errorf("query member counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			id uuid.UUID
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan member count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func (q *queries) ListRoleMembers(ctx context.Context, roleID uuid.UUID, limit, offset int) ([]rbac.MemberSummary, error) {
	rows, err := q.db.Query(ctx, `
		SELECT principal_id, organization_id, created_at
		FROM rbac_assignments
		WHERE role_id = $1
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3`, roleID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query role members: %w", err)
	}
	members, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (rbac.MemberSummary, error) {
		var m rbac.MemberSummary
		err := row.Scan(&m.PrincipalID, &m.OrganizationID, &m.AssignedAt)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan role members: %w", err)
	}
	return members, nil
}

func (q *queries) PrincipalAssignments(ctx context.Context, principalID uuid.UUID) ([]rbac.Assignment, error) {
	rows, err := q.db.Query(ctx, `
		SELECT principal_id, role_id, organization_id, created_at
		FROM rbac_assignments
		WHERE principal_id = $1
		ORDER BY created_at, id`, principalID)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	assignments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (rbac.Assignment, error) {
		var a rbac.Assignment
		err := row.Scan(&a.PrincipalID, &a.RoleID, &a.OrganizationID, &a.CreatedAt)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan assignments: %w", err)
	}
	return assignments, nil
}

func (q *queries) ReplacePrincipalRoles(ctx context.Context, principalID uuid.UUID, orgID *uuid.UUID, roleIDs []uuid.UUID, at time.Time) error {
	if roleIDs == nil {
		roleIDs = []uuid.UUID{}
	}

	if _, err := q.db.Exec(ctx, `
		DELETE FROM rbac_assignments
		WHERE principal_id = $1
		  AND organization_id IS NOT DISTINCT FROM $2
		  AND NOT (role_id = ANY($3))`, principalID, orgID, roleIDs); err != nil {
		return fmt.Errorf("delete assignments: %w", err)
	}

	if len(roleIDs) == 0 {
		return nil
	}

	_, err := q.db.Exec(ctx, `
		INSERT INTO rbac_assignments (principal_id, role_id, organization_id, created_at)
		SELECT $1::uuid, t.role_id, $2::uuid, $4::timestamptz
		FROM unnest($3::uuid[]) WITH ORDINALITY AS t(role_id, ord)
		ORDER BY t.ord
		ON CONFLICT DO NOTHING`, principalID, orgID, roleIDs, at)
	switch {
	case err == nil:
		return nil
	case pg.IsForeignKeyViolationError(err):
		return rbac.ErrRoleNotFound
	default:
		return fmt.Errorf("insert assignments: %w", err)
	}
}

func (q *queries) CountPlatformRoleHolders(ctx context.Context, roleID uuid.UUID) (int, error) {
	return q.count(ctx, `
		SELECT count(DISTINCT principal_id)
		FROM rbac_assignments
		WHERE role_id = $1 AND organization_id IS NULL`, roleID)
}

func (q *queries) LockAssignments(ctx context.Context) error {
	_, err := q.db.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, assignmentsLockKey)
	return err
}

func (q *queries) count(ctx context.Context, sql string, args ...any) (int, error) {
	var n int
	if err := q.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func roleError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return rbac.ErrRoleNotFound
	}
	return fmt.Errorf("query role: %w", err)
}
