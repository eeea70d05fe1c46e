// Package rbac maintains a forest of named roles with single-parent
// inheritance and answers whether a principal holds a role.
//
// A role's parent is the less privileged role it extends. Holding a role
// grants every role on its parent chain, so with the default system roles a
// holder of ROLE_ADMIN is also granted ROLE_USER.
//
// Role names match ROLE_[A-Z][A-Z0-9_]+ and never change after creation.
// Parent changes are checked for cycles by walking the new parent's ancestor
// chain. Roles with members or children, and system roles, cannot be
// deleted.
//
// Authorization checks read a process-wide hierarchy snapshot that is loaded
// on first use and dropped whenever a role is created, deleted or moved.
// Instances sharing one store can exchange invalidations through an
// InvalidationBus (see the redis package).
//
// Assignments are changed only through SetPrincipalRoles, which refuses to
// remove the caller's own administrator role and to leave the platform
// without an administrator. The check runs inside the store transaction
// after LockAssignments, so concurrent demotions cannot both pass it.
//
// Basic usage:
//
//	svc, err := rbac.NewService(rbac.NewMemoryStore(), rbac.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	if err := svc.SeedSystemRoles(ctx, rbac.DefaultSystemRoles()); err != nil {
//	    return err
//	}
//
//	user, _ := svc.GetRoleByName(ctx, rbac.RoleUser)
//	billing, err := svc.CreateRole(ctx, rbac.CreateRoleInput{
//	    Name:     "ROLE_BILLING_ADMIN",
//	    ParentID: &user.ID,
//	})
//
//	ok, err := svc.IsGranted(ctx, []uuid.UUID{billing.ID}, rbac.RoleUser) // true
//
// HTTP handlers can be guarded with RequireRole once an authentication
// middleware has stored the principal with WithPrincipal:
//
//	r.With(rbac.RequireRole(svc, rbac.RoleAdmin)).Post("/api/roles", createRole)
package rbac
