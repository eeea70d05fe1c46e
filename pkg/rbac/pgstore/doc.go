// Package pgstore implements rbac.Store and audit.BatchStorage on
// PostgreSQL with pgx/v5.
//
// Transactions started by InTx run at READ COMMITTED. LockAssignments and
// LockRoles take transaction-scoped advisory locks, which is what makes the
// last-administrator recount and the cycle check safe across instances.
// Outside InTx both locks are released as soon as they are taken.
//
// The schema ships as embedded goose migrations applied with Migrate.
package pgstore
