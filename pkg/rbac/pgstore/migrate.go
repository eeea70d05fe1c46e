package pgstore

import (
	"context"
	"embed"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/authkit/pkg/pg"
)

//go:embed migrations/*.sql
var migrations embed.FS

type migrationLogger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// Migrate creates or upgrades the role, assignment and audit tables.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log migrationLogger) error {
	return pg.Migrate(ctx, pool, migrations, "migrations", cfg, log)
}
