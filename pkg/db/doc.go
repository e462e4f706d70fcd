// Package db opens the PostgreSQL pool backing the delivery log and the job queue,
// and applies embedded goose migrations.
//
//	pool, err := db.Connect(ctx, cfg.DB)
//	defer pool.Close()
//	err = db.Migrate(ctx, pool, delivery.Migrations, cfg.DB.MigrationsTable, log)
//
// Connect retries with exponential backoff (DATABASE_CONNECT_RETRIES,
// DATABASE_RETRY_INTERVAL). WithTx runs a function in a transaction and rolls
// back on error or panic; WithTxOptions does the same at a chosen isolation level.
package db
