// Package logger builds the process-wide *slog.Logger.
//
// Output is JSON (or text, with LOG_FORMAT=text) on stdout at LOG_LEVEL. When
// SENTRY_DSN is set, records are also forwarded to Sentry: errors become issues,
// warnings and errors are kept as logs.
//
// # Context Extractors
//
// A ContextExtractor turns a context value into an attribute on every record
// logged with that context. The decorator runs extractors per call, so values
// attached deep in a call chain still show up:
//
//	log := logger.New(cfg.Log, logger.RunIDExtractor(), logger.MenuDateExtractor())
//
//	ctx = logger.WithRunID(ctx, runID)
//	ctx = logger.WithMenuDate(ctx, "2024-03-07")
//	log.InfoContext(ctx, "menu fetched")
//	// {"level":"INFO","msg":"menu fetched","run_id":"…","menu_date":"2024-03-07"}
//
// Components accept a *slog.Logger and fall back to [NewNope] when given nil.
//
// Call [Flush] before exit so pending Sentry events are delivered.
package logger
