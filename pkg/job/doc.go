// Package job runs background tasks on River, a Postgres-backed queue.
//
// Every task shares one River job kind and is dispatched by name through a
// registry, so tasks are plain structs with Name and Handle methods:
//
//	type SendMenu struct{ runner *pipeline.Runner }
//
//	func (t *SendMenu) Name() string { return "send_menu" }
//	func (t *SendMenu) Handle(ctx context.Context, p SendMenuPayload) error { ... }
//
// Periodic tasks add a Schedule method returning a 5-field cron expression,
// parsed with robfig/cron and evaluated in the location given to WithLocation:
//
//	m, err := job.NewManager(pool,
//	    job.WithTask(sendMenu),
//	    job.WithScheduledTask(dailyMenu),
//	    job.WithLocation(loc),
//	    job.WithLogger(log),
//	)
//	err = m.Start(ctx)
//	defer m.Stop(shutdownCtx)
//
// Enqueue options control queue, scheduling, attempts and deduplication.
// UniqueFor combined with UniqueKey skips inserts that collide with a recent job
// and reports it via Enqueued.Duplicate:
//
//	res, err := m.Enqueue(ctx, "send_menu", payload,
//	    job.UniqueFor(10*time.Minute), job.UniqueKey(date))
//
// NewEnqueuer builds an insert-only client for processes that do not run workers.
// Migrate applies River's schema migrations.
package job
