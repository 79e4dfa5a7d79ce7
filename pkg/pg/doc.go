// Package pg bootstraps the Postgres backend on top of pgx/v5.
//
// Connect builds a *pgxpool.Pool from Config and retries the first ping with
// exponential backoff. Migrate runs goose migrations from an fs.FS, normally
// the embedded migrations package, over the same pool. Healthcheck returns a
// readiness probe.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, migrations.FS, cfg, log); err != nil {
//		return err
//	}
//
// IsDuplicateKeyError and IsNotFoundError classify driver errors so stores
// can map them to domain errors.
package pg
