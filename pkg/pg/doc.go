// Package pg bootstraps PostgreSQL access with pgx/v5: a retrying pool
// constructor, goose migrations read from an fs.FS, a readiness probe and
// classifiers for common PostgreSQL errors.
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pgstore.Migrate(ctx, pool, cfg, log); err != nil {
//	    return err
//	}
//
// Error helpers such as IsDuplicateKeyError unwrap *pgconn.PgError so store
// code can map constraint violations to domain errors.
package pg
