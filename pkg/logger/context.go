package logger

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	runIDKey ctxKey = iota
	menuDateKey
)

// WithRunID tags ctx with the pipeline run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// RunID returns the run identifier stored in ctx, if any.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// WithMenuDate tags ctx with the menu date being processed.
func WithMenuDate(ctx context.Context, date string) context.Context {
	return context.WithValue(ctx, menuDateKey, date)
}

// RunIDExtractor adds run_id to every record logged with a tagged context.
func RunIDExtractor() ContextExtractor {
	return stringExtractor(runIDKey, "run_id")
}

// MenuDateExtractor adds menu_date to every record logged with a tagged context.
func MenuDateExtractor() ContextExtractor {
	return stringExtractor(menuDateKey, "menu_date")
}

func stringExtractor(key ctxKey, name string) ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			return slog.String(name, v), true
		}
		return slog.Attr{}, false
	}
}
