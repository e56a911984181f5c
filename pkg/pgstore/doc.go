// Package pgstore provides the PostgreSQL-backed email and template storage.
//
// [Store] implements both delivery.Store and render.TemplateStore on a
// single pgx connection pool, so one instance backs the whole delivery
// pipeline. Schema migrations are embedded and applied with [Migrate];
// River's queue tables are managed separately with the river CLI.
//
// # Configuration
//
// All settings are loaded from environment variables:
//
//	MAILROOM_DATABASE_URL           - PostgreSQL connection URL (required)
//	MAILROOM_MIGRATIONS_TABLE       - Migrations table name (default: mailroom_migrations)
//	MAILROOM_DB_MAX_OPEN_CONNS      - Maximum open connections (default: 10)
//	MAILROOM_DB_MIN_CONNS           - Minimum idle connections (default: 2)
//	MAILROOM_DB_HEALTHCHECK_PERIOD  - Health check interval (default: 1m)
//	MAILROOM_DB_MAX_CONN_IDLE_TIME  - Maximum connection idle time (default: 10m)
//	MAILROOM_DB_MAX_CONN_LIFETIME   - Maximum connection lifetime (default: 30m)
//	MAILROOM_DB_RETRY_ATTEMPTS      - Connection retry attempts (default: 3)
//	MAILROOM_DB_RETRY_INTERVAL      - Base retry interval (default: 5s)
//
// # Usage
//
//	pool, err := pgstore.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pgstore.Migrate(ctx, pool, cfg.MigrationsTable, logger); err != nil {
//		return err
//	}
//
//	store := pgstore.New(pool)
//
// Hosts that keep emails or templates in their own tables can skip this
// package entirely and implement the store interfaces themselves.
package pgstore
